package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vnkhanh/hostel-server/models"
)

type RoomGateway interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	InsertRoom(ctx context.Context, room models.Room) (*models.Room, error)
	UpdateRoom(ctx context.Context, id int64, upd models.RoomUpdate) (*models.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	ListActiveAllocations(ctx context.Context) ([]models.ActiveAllocation, error)
	AllocateRoom(ctx context.Context, studentID uuid.UUID, roomID int64) error
	DeallocateStudent(ctx context.Context, studentID uuid.UUID) error
}

// CapacityOf is the only source of a room's capacity.
func CapacityOf(t models.RoomType) int {
	return t.Capacity()
}

// Occupancy maps a room id to the names of its active occupants.
type Occupancy map[int64][]string

func (o Occupancy) Count(roomID int64) int {
	return len(o[roomID])
}

// NewOccupancy projects active allocation rows onto room ids. Rows whose
// profile is gone are dropped rather than reported.
func NewOccupancy(rows []models.ActiveAllocation) Occupancy {
	occ := Occupancy{}
	for _, a := range rows {
		if a.Profile == nil {
			continue
		}
		occ[a.RoomID] = append(occ[a.RoomID], a.Profile.FullName)
	}
	return occ
}

type RoomOverview struct {
	Rooms     []models.Room `json:"rooms"`
	Occupants Occupancy     `json:"occupants"`
}

type RoomDetail struct {
	models.Room
	Capacity      int      `json:"capacity"`
	OccupantNames []string `json:"occupant_names"`
}

type CreateRoomInput struct {
	RoomNumber string          `json:"room_number" validate:"required,max=20"`
	Type       models.RoomType `json:"type" validate:"required,oneof=Single Double Triple"`
	// Status and Occupants are accepted but never written: a new room is
	// always Vacant with the capacity of its type.
	Status    models.RoomStatus `json:"status"`
	Occupants int               `json:"occupants"`
	StudentID *uuid.UUID        `json:"student_id"`
}

type UpdateRoomInput struct {
	RoomNumber string            `json:"room_number" validate:"required,max=20"`
	Type       models.RoomType   `json:"type" validate:"required,oneof=Single Double Triple"`
	Status     models.RoomStatus `json:"status" validate:"required,oneof=Vacant Occupied Maintenance"`
}

// RoomService is the room allocation workflow. Every mutation leaves the
// caller's copy of rooms and occupants stale; callers must re-read both.
type RoomService struct {
	gw     RoomGateway
	logger *zap.Logger
}

func NewRoomService(gw RoomGateway, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{gw: gw, logger: logger}
}

func (s *RoomService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.gw.ListRooms(ctx)
	if err != nil {
		return nil, &FetchError{Op: "rooms", Err: err}
	}
	return rooms, nil
}

func (s *RoomService) ListActiveAllocationsByRoom(ctx context.Context) (Occupancy, error) {
	rows, err := s.gw.ListActiveAllocations(ctx)
	if err != nil {
		return nil, &FetchError{Op: "room allocations", Err: err}
	}
	return NewOccupancy(rows), nil
}

// Overview fetches rooms and occupants in parallel and joins them.
func (s *RoomService) Overview(ctx context.Context) (*RoomOverview, error) {
	var (
		rooms []models.Room
		occ   Occupancy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rooms, err = s.ListRooms(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		occ, err = s.ListActiveAllocationsByRoom(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &RoomOverview{Rooms: rooms, Occupants: occ}, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id int64) (*RoomDetail, error) {
	room, err := s.gw.GetRoom(ctx, id)
	if err != nil {
		return nil, &FetchError{Op: "room", Err: err}
	}
	occ, err := s.ListActiveAllocationsByRoom(ctx)
	if err != nil {
		return nil, err
	}
	names := append([]string{}, occ[id]...)
	sort.Strings(names)
	return &RoomDetail{Room: *room, Capacity: CapacityOf(room.Type), OccupantNames: names}, nil
}

// CreateRoom inserts a Vacant room sized by its type, then allocates the
// optional student. The two calls are not atomic: when the allocation fails the
// room is returned together with a *PartialSuccessError.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*models.Room, error) {
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	room, err := s.gw.InsertRoom(ctx, models.Room{
		RoomNumber: in.RoomNumber,
		Type:       in.Type,
		Status:     models.RoomVacant,
		Occupants:  CapacityOf(in.Type),
	})
	if err != nil {
		return nil, &MutationError{Op: "add room", Err: err}
	}
	s.logger.Info("room created", zap.Int64("room_id", room.ID), zap.String("room_number", room.RoomNumber))

	if in.StudentID == nil {
		return room, nil
	}
	if err := s.gw.AllocateRoom(ctx, *in.StudentID, room.ID); err != nil {
		s.logger.Warn("room created but allocation failed",
			zap.Int64("room_id", room.ID),
			zap.String("student_id", in.StudentID.String()),
			zap.Error(err),
		)
		return room, &PartialSuccessError{Room: room, Err: err}
	}
	return room, nil
}

// UpdateRoom rewrites number, type and status and recomputes capacity. The
// occupancy check reads a fresh snapshot but is advisory only; a concurrent
// allocation between the check and the write is not prevented.
func (s *RoomService) UpdateRoom(ctx context.Context, id int64, in UpdateRoomInput) (*models.Room, error) {
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	capacity := CapacityOf(in.Type)
	occ, err := s.ListActiveAllocationsByRoom(ctx)
	if err != nil {
		return nil, err
	}
	if n := occ.Count(id); n > capacity {
		return nil, &CapacityViolationError{RoomID: id, Occupants: n, Capacity: capacity}
	}

	room, err := s.gw.UpdateRoom(ctx, id, models.RoomUpdate{
		RoomNumber: in.RoomNumber,
		Type:       in.Type,
		Status:     in.Status,
		Occupants:  capacity,
	})
	if err != nil {
		return nil, &MutationError{Op: "update room", Err: err}
	}
	return room, nil
}

// DeleteRoom refuses rooms that still have active occupants.
func (s *RoomService) DeleteRoom(ctx context.Context, id int64) error {
	occ, err := s.ListActiveAllocationsByRoom(ctx)
	if err != nil {
		return err
	}
	if n := occ.Count(id); n > 0 {
		return &RoomOccupiedError{RoomID: id, Occupants: n}
	}
	if err := s.gw.DeleteRoom(ctx, id); err != nil {
		return &MutationError{Op: "delete room", Err: err}
	}
	s.logger.Info("room deleted", zap.Int64("room_id", id))
	return nil
}

// AllocateStudent assigns a student to an existing room. Capacity and
// uniqueness are enforced by the remote procedure.
func (s *RoomService) AllocateStudent(ctx context.Context, roomID int64, studentID uuid.UUID) error {
	if err := s.gw.AllocateRoom(ctx, studentID, roomID); err != nil {
		return &MutationError{Op: "allocate room", Err: err}
	}
	return nil
}

func (s *RoomService) DeallocateStudent(ctx context.Context, studentID uuid.UUID) error {
	if err := s.gw.DeallocateStudent(ctx, studentID); err != nil {
		return &MutationError{Op: "deallocate student", Err: err}
	}
	return nil
}
