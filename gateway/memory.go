package gateway

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/hostel-server/models"
)

// Memory keeps every table in process memory. It backs GATEWAY_MODE=memory for
// local runs and the workflow tests.
type Memory struct {
	mu          sync.RWMutex
	rooms       map[int64]models.Room
	profiles    map[uuid.UUID]models.Profile
	users       map[string]models.AuthUser // email -> identity
	allocations []models.RoomAllocation
	maintenance map[int64]models.MaintenanceRequest
	nextRoomID  int64
	nextAllocID int64
	now         func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		rooms:       map[int64]models.Room{},
		profiles:    map[uuid.UUID]models.Profile{},
		users:       map[string]models.AuthUser{},
		maintenance: map[int64]models.MaintenanceRequest{},
		now:         time.Now,
	}
}

var _ Gateway = (*Memory)(nil)

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) ListRooms(context.Context) ([]models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (m *Memory) GetRoom(_ context.Context, id int64) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) InsertRoom(_ context.Context, room models.Room) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rooms {
		if r.RoomNumber == room.RoomNumber {
			return nil, duplicateRoomNumber()
		}
	}
	m.nextRoomID++
	room.ID = m.nextRoomID
	room.CreatedAt = m.now()
	m.rooms[room.ID] = room
	return &room, nil
}

func (m *Memory) UpdateRoom(_ context.Context, id int64, upd models.RoomUpdate) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, other := range m.rooms {
		if other.ID != id && other.RoomNumber == upd.RoomNumber {
			return nil, duplicateRoomNumber()
		}
	}
	r.RoomNumber = upd.RoomNumber
	r.Type = upd.Type
	r.Status = upd.Status
	r.Occupants = upd.Occupants
	m.rooms[id] = r
	return &r, nil
}

func (m *Memory) DeleteRoom(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// PostgREST deletes are filters; deleting nothing is not an error.
	delete(m.rooms, id)
	kept := m.allocations[:0]
	for _, a := range m.allocations {
		if a.RoomID != id {
			kept = append(kept, a)
		}
	}
	m.allocations = kept
	return nil
}

func (m *Memory) ListActiveAllocations(context.Context) ([]models.ActiveAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ActiveAllocation, 0, len(m.allocations))
	for _, a := range m.allocations {
		if !a.IsActive {
			continue
		}
		row := models.ActiveAllocation{RoomID: a.RoomID, StudentID: a.StudentID}
		if p, ok := m.profiles[a.StudentID]; ok {
			row.Profile = &models.ProfileName{FullName: p.FullName}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *Memory) AllocateRoom(_ context.Context, studentID uuid.UUID, roomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return &Error{Status: 404, Code: "P0002", Message: "Room not found"}
	}
	if _, ok := m.profiles[studentID]; !ok {
		return &Error{Status: 404, Code: "P0002", Message: "Student not found"}
	}
	if room.Status == models.RoomMaintenance {
		return ErrRoomUnavailable
	}
	count := 0
	for _, a := range m.allocations {
		if !a.IsActive {
			continue
		}
		if a.StudentID == studentID {
			return ErrAlreadyAllocated
		}
		if a.RoomID == roomID {
			count++
		}
	}
	if count >= room.Type.Capacity() {
		return ErrRoomFull
	}

	m.nextAllocID++
	m.allocations = append(m.allocations, models.RoomAllocation{
		ID:          m.nextAllocID,
		RoomID:      roomID,
		StudentID:   studentID,
		IsActive:    true,
		AllocatedAt: m.now(),
	})
	room.Status = statusAfterAllocation(room, count+1)
	m.rooms[roomID] = room
	return nil
}

func (m *Memory) DeallocateStudent(_ context.Context, studentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, a := range m.allocations {
		if !a.IsActive || a.StudentID != studentID {
			continue
		}
		m.allocations[i].IsActive = false
		room, ok := m.rooms[a.RoomID]
		if !ok {
			return nil
		}
		room.Status = statusAfterAllocation(room, m.activeCountLocked(a.RoomID))
		m.rooms[a.RoomID] = room
		return nil
	}
	return ErrNoActiveRoom
}

func (m *Memory) activeCountLocked(roomID int64) int {
	n := 0
	for _, a := range m.allocations {
		if a.IsActive && a.RoomID == roomID {
			n++
		}
	}
	return n
}

func (m *Memory) ListStudents(context.Context) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if p.Role == models.RoleStudent {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) UpdateProfile(_ context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.Phone != nil {
		p.Phone = upd.Phone
	}
	if upd.Course != nil {
		p.Course = upd.Course
	}
	m.profiles[id] = p
	return &p, nil
}

// DeleteProfile removes only the profile. The identity record stays behind.
func (m *Memory) DeleteProfile(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.profiles, id)
	return nil
}

func (m *Memory) SignUp(_ context.Context, req models.SignUpRequest) (*models.SignUpResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, ok := m.users[email]; ok {
		existing.Identities = []models.Identity{}
		return &models.SignUpResult{User: &existing}, nil
	}

	now := m.now()
	user := models.AuthUser{
		ID:                 uuid.New(),
		Email:              email,
		UserMetadata:       req.Metadata,
		ConfirmationSentAt: &now,
		CreatedAt:          now,
	}
	user.Identities = []models.Identity{{ID: user.ID.String(), Provider: "email"}}
	m.users[email] = user
	m.profiles[user.ID] = profileFromMetadata(user.ID, email, req.Metadata, now)
	return &models.SignUpResult{User: &user}, nil
}

func (m *Memory) ListMaintenanceRequests(context.Context) ([]models.MaintenanceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.MaintenanceRequest, 0, len(m.maintenance))
	for _, r := range m.maintenance {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetMaintenanceRequest(_ context.Context, id int64) (*models.MaintenanceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.maintenance[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// PutProfile seeds or replaces a profile.
func (m *Memory) PutProfile(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.profiles[p.ID] = p
}

// PutMaintenanceRequest seeds or replaces a maintenance request.
func (m *Memory) PutMaintenanceRequest(r models.MaintenanceRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	m.maintenance[r.ID] = r
}

func duplicateRoomNumber() error {
	return &Error{
		Status:  409,
		Code:    "23505",
		Message: `duplicate key value violates unique constraint "rooms_room_number_key"`,
	}
}

// profileFromMetadata mirrors the backend trigger that turns signup metadata
// into a profiles row.
func profileFromMetadata(id uuid.UUID, email string, meta map[string]any, now time.Time) models.Profile {
	str := func(k string) *string {
		v, ok := meta[k].(string)
		if !ok || v == "" {
			return nil
		}
		return &v
	}
	p := models.Profile{
		ID:          id,
		Email:       email,
		Role:        models.RoleStudent,
		Phone:       str("phone"),
		Course:      str("course"),
		JoiningDate: str("joining_date"),
		CreatedAt:   now,
	}
	if v := str("full_name"); v != nil {
		p.FullName = *v
	}
	if v := str("role"); v != nil {
		p.Role = *v
	}
	return p
}
