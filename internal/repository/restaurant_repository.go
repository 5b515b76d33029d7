package repository

import (
	"context"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

// RestaurantRepository defines access to restaurant configuration:
// the restaurant itself, its weekly opening rules and its table inventory.
type RestaurantRepository interface {
	// GetByID retrieves a restaurant by its ID
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)

	// ListActiveRules returns the active weekly opening rules for a restaurant
	ListActiveRules(ctx context.Context, restaurantID string) ([]domain.WeeklyOpeningRule, error)

	// ListTables returns the table inventory for a restaurant ordered by table number
	ListTables(ctx context.Context, restaurantID string) ([]domain.Table, error)

	// UpdateTableStatus changes the present state of a single table
	UpdateTableStatus(ctx context.Context, tableID string, status domain.TableStatus) error
}
