package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/services"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Err: errors.New("bad")}, http.StatusUnprocessableEntity},
		{"weak password", services.ErrWeakPassword, http.StatusUnprocessableEntity},
		{"capacity", &services.CapacityViolationError{Occupants: 2, Capacity: 1}, http.StatusConflict},
		{"occupied", &services.RoomOccupiedError{Occupants: 1}, http.StatusConflict},
		{"exists", services.ErrAccountExists, http.StatusConflict},
		{"not found", &services.FetchError{Op: "room", Err: gateway.ErrNotFound}, http.StatusNotFound},
		{"room full", &services.MutationError{Op: "allocate room", Err: gateway.ErrRoomFull}, http.StatusConflict},
		{"policy", &services.FetchError{Op: "rooms", Err: &gateway.Error{Status: 401, Message: "JWT expired"}}, http.StatusBadGateway},
		{"row policy", &services.FetchError{Op: "rooms", Err: &gateway.Error{Status: 403, Message: "permission denied for table rooms"}}, http.StatusBadGateway},
		{"transport", &services.MutationError{Op: "add room", Err: errors.New("dial tcp: refused")}, http.StatusBadGateway},
		{"storage off", services.ErrStorageDisabled, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}
