package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/internal/dto"
)

// MockAvailabilityService is a mock implementation of AvailabilityService for testing
type MockAvailabilityService struct {
	GetAvailabilityFunc func(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error)
}

func (m *MockAvailabilityService) GetAvailability(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error) {
	if m.GetAvailabilityFunc != nil {
		return m.GetAvailabilityFunc(ctx, restaurantID, date, partySize)
	}
	return nil, nil
}

func setupAvailabilityRouter(svc *MockAvailabilityService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAvailabilityHandler(svc)
	router.GET("/restaurants/:id/availability", h.GetAvailability)
	return router
}

func TestAvailabilityHandler_GetAvailability(t *testing.T) {
	slotStart := time.Date(2026, 9, 4, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		url            string
		mockFunc       func(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error)
		expectedStatus int
	}{
		{
			name: "open day with slots",
			url:  "/restaurants/rest-001/availability?date=2026-09-04&party_size=2",
			mockFunc: func(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error) {
				assert.Equal(t, "rest-001", restaurantID)
				assert.Equal(t, "2026-09-04", date)
				assert.Equal(t, 2, partySize)
				return &dto.AvailabilityResponse{
					RestaurantID: restaurantID,
					Date:         date,
					PartySize:    partySize,
					Timezone:     "America/Bogota",
					Slots: []dto.SlotEntry{
						{SlotStart: slotStart, LocalTime: "18:00"},
					},
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "party_size not an integer",
			url:            "/restaurants/rest-001/availability?date=2026-09-04&party_size=two",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid date",
			url:  "/restaurants/rest-001/availability?date=september&party_size=2",
			mockFunc: func(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error) {
				return nil, domain.ErrInvalidDate
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown restaurant",
			url:  "/restaurants/rest-999/availability?date=2026-09-04&party_size=2",
			mockFunc: func(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error) {
				return nil, domain.ErrRestaurantNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "date outside booking window",
			url:  "/restaurants/rest-001/availability?date=2027-01-01&party_size=2",
			mockFunc: func(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error) {
				return nil, domain.ErrDateOutOfWindow
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAvailabilityRouter(&MockAvailabilityService{GetAvailabilityFunc: tt.mockFunc})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				env := decodeEnvelope(t, w)
				require.True(t, env.Success)
			}
		})
	}
}
