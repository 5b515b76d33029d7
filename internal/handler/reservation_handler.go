package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kaeky/Yum-Yum-sub001/internal/dto"
	"github.com/kaeky/Yum-Yum-sub001/internal/service"
	"github.com/kaeky/Yum-Yum-sub001/pkg/middleware"
	"github.com/kaeky/Yum-Yum-sub001/pkg/response"
	"github.com/kaeky/Yum-Yum-sub001/pkg/telemetry"
)

// ReservationHandler handles reservation HTTP requests
type ReservationHandler struct {
	reservations service.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Create handles POST /reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	customerID := middleware.GetCustomerID(c)
	if customerID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("customer_id", customerID),
		attribute.String("restaurant_id", req.RestaurantID),
		attribute.String("slot_start", req.SlotStart),
		attribute.Int("party_size", req.PartySize),
	)

	result, err := h.reservations.Create(ctx, customerID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		writeDomainError(c, err)
		return
	}

	span.SetAttributes(attribute.String("reservation_id", result.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// Get handles GET /reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	customerID := middleware.GetCustomerID(c)
	if customerID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	result, err := h.reservations.Get(ctx, c.Param("id"), customerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get failed")
		writeDomainError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// List handles GET /reservations?page=&page_size=
func (h *ReservationHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	customerID := middleware.GetCustomerID(c)
	if customerID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.reservations.ListByCustomer(ctx, customerID, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		writeDomainError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.SuccessWithMeta(c, result.Items, gin.H{
		"page":      result.Page,
		"page_size": result.PageSize,
	})
}

// Confirm handles POST /reservations/:id/confirm
func (h *ReservationHandler) Confirm(c *gin.Context) {
	h.transition(c, "confirm", h.reservations.Confirm)
}

// Seat handles POST /reservations/:id/seat
func (h *ReservationHandler) Seat(c *gin.Context) {
	h.transition(c, "seat", h.reservations.Seat)
}

// Complete handles POST /reservations/:id/complete
func (h *ReservationHandler) Complete(c *gin.Context) {
	h.transition(c, "complete", h.reservations.Complete)
}

// Cancel handles POST /reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", h.reservations.Cancel)
}

type transitionFn func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)

func (h *ReservationHandler) transition(c *gin.Context, name string, fn transitionFn) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation."+name)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	customerID := middleware.GetCustomerID(c)
	if customerID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	reservationID := c.Param("id")
	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("customer_id", customerID),
	)

	result, err := fn(ctx, reservationID, customerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
		writeDomainError(c, err)
		return
	}

	span.SetAttributes(attribute.String("status", result.Status))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
