package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/services"
)

// Collections a client must re-read after a mutation.
const (
	refetchRooms       = "rooms"
	refetchAllocations = "room_allocations"
	refetchStudents    = "students"
)

// statusOf maps a workflow error onto an HTTP status.
func statusOf(err error) int {
	var (
		verr *services.ValidationError
		gerr *gateway.Error
	)
	switch {
	case errors.As(err, &verr), errors.Is(err, services.ErrWeakPassword):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrCapacityViolation),
		errors.Is(err, services.ErrRoomOccupied),
		errors.Is(err, services.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &gerr) && gerr.Status >= 400 && gerr.Status < 500 && gerr.Status != http.StatusUnauthorized && gerr.Status != http.StatusForbidden:
		return gerr.Status
	default:
		return http.StatusBadGateway
	}
}

// respondError writes {"message": ...}. Remote failures keep the remote wording.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusOf(err)
	msg := err.Error()
	var (
		ferr *services.FetchError
		merr *services.MutationError
	)
	if errors.As(err, &ferr) || errors.As(err, &merr) {
		msg = services.RemoteMessage(err)
	}
	body := gin.H{"message": msg}
	var gerr *gateway.Error
	if errors.As(err, &gerr) && gerr.Code != "" {
		body["code"] = gerr.Code
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request payload", "error": err.Error()})
}
