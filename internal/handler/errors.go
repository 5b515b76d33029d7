package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/pkg/response"
)

// writeDomainError maps a domain error onto the HTTP response envelope
func writeDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "")
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrNoTableAvailable):
		response.Conflict(c, "NO_TABLE_AVAILABLE", err.Error())
	case errors.Is(err, domain.ErrCapacityConflict), errors.Is(err, domain.ErrSlotLockTimeout):
		response.Conflict(c, "SLOT_CONTENTION", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrSeatBeforeSlot):
		response.Conflict(c, "INVALID_STATE", err.Error())
	default:
		response.InternalError(c, err)
	}
}
