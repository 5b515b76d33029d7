package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kaeky/Yum-Yum-sub001/internal/service"
	"github.com/kaeky/Yum-Yum-sub001/pkg/response"
	"github.com/kaeky/Yum-Yum-sub001/pkg/telemetry"
)

// AvailabilityHandler serves slot availability lookups
type AvailabilityHandler struct {
	availability service.AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availability service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// GetAvailability handles GET /restaurants/:id/availability?date=YYYY-MM-DD&party_size=N
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	restaurantID := c.Param("id")
	date := c.Query("date")
	partySize, err := strconv.Atoi(c.DefaultQuery("party_size", "0"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid party_size")
		response.BadRequest(c, "party_size must be an integer")
		return
	}

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("date", date),
		attribute.Int("party_size", partySize),
	)

	result, err := h.availability.GetAvailability(ctx, restaurantID, date, partySize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "availability lookup failed")
		writeDomainError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("slot_count", len(result.Slots)))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
