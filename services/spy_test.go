package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/models"
)

// spyGateway records every call that reaches the gateway and can make any of
// them fail.
type spyGateway struct {
	*gateway.Memory

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error

	// signUp, when set, replaces the memory identity provider.
	signUp func(models.SignUpRequest) (*models.SignUpResult, error)
}

func newSpy() *spyGateway {
	return &spyGateway{
		Memory: gateway.NewMemory(),
		calls:  map[string]int{},
		fail:   map[string]error{},
	}
}

func (s *spyGateway) hit(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	return s.fail[name]
}

func (s *spyGateway) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *spyGateway) failOn(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[name] = err
}

func (s *spyGateway) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

func (s *spyGateway) ListRooms(ctx context.Context) ([]models.Room, error) {
	if err := s.hit("ListRooms"); err != nil {
		return nil, err
	}
	return s.Memory.ListRooms(ctx)
}

func (s *spyGateway) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	if err := s.hit("GetRoom"); err != nil {
		return nil, err
	}
	return s.Memory.GetRoom(ctx, id)
}

func (s *spyGateway) InsertRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	if err := s.hit("InsertRoom"); err != nil {
		return nil, err
	}
	return s.Memory.InsertRoom(ctx, room)
}

func (s *spyGateway) UpdateRoom(ctx context.Context, id int64, upd models.RoomUpdate) (*models.Room, error) {
	if err := s.hit("UpdateRoom"); err != nil {
		return nil, err
	}
	return s.Memory.UpdateRoom(ctx, id, upd)
}

func (s *spyGateway) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.hit("DeleteRoom"); err != nil {
		return err
	}
	return s.Memory.DeleteRoom(ctx, id)
}

func (s *spyGateway) ListActiveAllocations(ctx context.Context) ([]models.ActiveAllocation, error) {
	if err := s.hit("ListActiveAllocations"); err != nil {
		return nil, err
	}
	return s.Memory.ListActiveAllocations(ctx)
}

func (s *spyGateway) AllocateRoom(ctx context.Context, studentID uuid.UUID, roomID int64) error {
	if err := s.hit("AllocateRoom"); err != nil {
		return err
	}
	return s.Memory.AllocateRoom(ctx, studentID, roomID)
}

func (s *spyGateway) DeallocateStudent(ctx context.Context, studentID uuid.UUID) error {
	if err := s.hit("DeallocateStudent"); err != nil {
		return err
	}
	return s.Memory.DeallocateStudent(ctx, studentID)
}

func (s *spyGateway) ListStudents(ctx context.Context) ([]models.Profile, error) {
	if err := s.hit("ListStudents"); err != nil {
		return nil, err
	}
	return s.Memory.ListStudents(ctx)
}

func (s *spyGateway) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if err := s.hit("GetProfile"); err != nil {
		return nil, err
	}
	return s.Memory.GetProfile(ctx, id)
}

func (s *spyGateway) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	if err := s.hit("UpdateProfile"); err != nil {
		return nil, err
	}
	return s.Memory.UpdateProfile(ctx, id, upd)
}

func (s *spyGateway) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	if err := s.hit("DeleteProfile"); err != nil {
		return err
	}
	return s.Memory.DeleteProfile(ctx, id)
}

func (s *spyGateway) SignUp(ctx context.Context, req models.SignUpRequest) (*models.SignUpResult, error) {
	if err := s.hit("SignUp"); err != nil {
		return nil, err
	}
	if s.signUp != nil {
		return s.signUp(req)
	}
	return s.Memory.SignUp(ctx, req)
}

func (s *spyGateway) ListMaintenanceRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	if err := s.hit("ListMaintenanceRequests"); err != nil {
		return nil, err
	}
	return s.Memory.ListMaintenanceRequests(ctx)
}

func (s *spyGateway) GetMaintenanceRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	if err := s.hit("GetMaintenanceRequest"); err != nil {
		return nil, err
	}
	return s.Memory.GetMaintenanceRequest(ctx, id)
}

var seq = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

// seedStudent adds a student profile; later seeds are newer.
func seedStudent(t *testing.T, gw *spyGateway, name, email string) models.Profile {
	t.Helper()
	seq = seq.Add(time.Minute)
	p := models.Profile{
		ID:        uuid.New(),
		FullName:  name,
		Email:     email,
		Role:      models.RoleStudent,
		CreatedAt: seq,
	}
	gw.PutProfile(p)
	return p
}

func seedRoom(t *testing.T, gw *spyGateway, number string, typ models.RoomType) models.Room {
	t.Helper()
	r, err := gw.Memory.InsertRoom(context.Background(), models.Room{
		RoomNumber: number,
		Type:       typ,
		Status:     models.RoomVacant,
		Occupants:  typ.Capacity(),
	})
	require.NoError(t, err)
	return *r
}

func allocate(t *testing.T, gw *spyGateway, studentID uuid.UUID, roomID int64) {
	t.Helper()
	require.NoError(t, gw.Memory.AllocateRoom(context.Background(), studentID, roomID))
}

func ptr[T any](v T) *T { return &v }
