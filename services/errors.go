package services

import (
	"errors"
	"fmt"

	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/models"
	"github.com/vnkhanh/hostel-server/utils"
)

var (
	ErrCapacityViolation = errors.New("capacity violation")
	ErrRoomOccupied      = errors.New("room is occupied")
	ErrWeakPassword      = fmt.Errorf("password must be at least %d characters long", utils.MinPasswordLength)
	ErrAccountExists     = errors.New("an account with this email already exists, please use a different email")
	ErrSignUpIncomplete  = errors.New("an unknown error occurred during sign up")
	ErrStorageDisabled   = errors.New("export storage is not configured")
)

// FetchError is a failed read. Callers render an empty state instead of failing.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("failed to fetch %s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is a failed write.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string { return fmt.Sprintf("failed to %s: %v", e.Op, e.Err) }
func (e *MutationError) Unwrap() error { return e.Err }

type CapacityViolationError struct {
	RoomID    int64
	Occupants int
	Capacity  int
}

func (e *CapacityViolationError) Error() string {
	return fmt.Sprintf("cannot change type: room has %d occupants, exceeding new capacity of %d", e.Occupants, e.Capacity)
}

func (e *CapacityViolationError) Is(target error) bool { return target == ErrCapacityViolation }

type RoomOccupiedError struct {
	RoomID    int64
	Occupants int
}

func (e *RoomOccupiedError) Error() string {
	return fmt.Sprintf("cannot delete an occupied room (%d occupants), deallocate students first", e.Occupants)
}

func (e *RoomOccupiedError) Is(target error) bool { return target == ErrRoomOccupied }

// PartialSuccessError means the room exists but the follow-up allocation did
// not happen. Nothing is rolled back.
type PartialSuccessError struct {
	Room *models.Room
	Err  error
}

func (e *PartialSuccessError) Error() string {
	return fmt.Sprintf("room created, but allocation failed: %v", RemoteMessage(e.Err))
}

func (e *PartialSuccessError) Unwrap() error { return e.Err }

type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid input: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteMessage returns the gateway's own wording when err came from it.
func RemoteMessage(err error) string {
	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		return gerr.Message
	}
	var merr *MutationError
	if errors.As(err, &merr) {
		return merr.Err.Error()
	}
	var ferr *FetchError
	if errors.As(err, &ferr) {
		return ferr.Err.Error()
	}
	return err.Error()
}
