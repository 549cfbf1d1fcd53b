// Package gateway talks to the Remote Data Gateway: the hosted tables
// (profiles, rooms, room_allocations, maintenance_requests), the allocate_room
// procedure and the identity provider. The gateway is the only source of truth;
// callers re-read after every write instead of patching local copies.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vnkhanh/hostel-server/models"
)

var ErrNotFound = errors.New("record not found")

// Error is a failure reported by the remote side. Message is kept verbatim so it
// can be shown to the administrator as-is.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

type Gateway interface {
	Ping(ctx context.Context) error

	ListRooms(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	InsertRoom(ctx context.Context, room models.Room) (*models.Room, error)
	UpdateRoom(ctx context.Context, id int64, upd models.RoomUpdate) (*models.Room, error)
	DeleteRoom(ctx context.Context, id int64) error

	ListActiveAllocations(ctx context.Context) ([]models.ActiveAllocation, error)
	AllocateRoom(ctx context.Context, studentID uuid.UUID, roomID int64) error
	DeallocateStudent(ctx context.Context, studentID uuid.UUID) error

	ListStudents(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error

	SignUp(ctx context.Context, req models.SignUpRequest) (*models.SignUpResult, error)

	ListMaintenanceRequests(ctx context.Context) ([]models.MaintenanceRequest, error)
	GetMaintenanceRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error)
}

type accessTokenKey struct{}

// WithAccessToken attaches the caller's access token so remote row-level
// policies are evaluated as that user.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func AccessToken(ctx context.Context) string {
	s, _ := ctx.Value(accessTokenKey{}).(string)
	return s
}

// Errors raised by allocate_room when run locally (postgres and memory modes).
var (
	ErrRoomFull         = &Error{Status: 409, Code: "P0001", Message: "Room is at full capacity"}
	ErrAlreadyAllocated = &Error{Status: 409, Code: "P0001", Message: "Student already has an active room allocation"}
	ErrRoomUnavailable  = &Error{Status: 409, Code: "P0001", Message: "Room is under maintenance"}
	ErrNoActiveRoom     = &Error{Status: 404, Code: "P0002", Message: "Student has no active room allocation"}
)

// statusAfterAllocation is the room status once count active occupants live in it.
func statusAfterAllocation(room models.Room, count int) models.RoomStatus {
	if room.Status == models.RoomMaintenance {
		return room.Status
	}
	if count >= room.Type.Capacity() {
		return models.RoomOccupied
	}
	return models.RoomVacant
}
