package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vnkhanh/hostel-server/models"
	"github.com/vnkhanh/hostel-server/utils"
)

type StudentGateway interface {
	ListStudents(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.SignUpResult, error)
	ListActiveAllocations(ctx context.Context) ([]models.ActiveAllocation, error)
}

type RosterEntry struct {
	models.Profile
	Allocated bool `json:"allocated"`
}

type Roster struct {
	Students []RosterEntry `json:"students"`
	Total    int           `json:"total"` // students before filtering
}

type StudentDetail struct {
	models.Profile
	Allocated bool   `json:"allocated"`
	RoomID    *int64 `json:"room_id,omitempty"`
}

type CreateStudentInput struct {
	FullName    string `json:"full_name" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password"`
	Phone       string `json:"phone" validate:"omitempty,max=30"`
	Course      string `json:"course" validate:"omitempty,max=150"`
	JoiningDate string `json:"joining_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateStudentInput struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=150"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Course   *string `json:"course" validate:"omitempty,max=150"`
	// Email is accepted so edit forms can post the whole record, but it is
	// never written.
	Email *string `json:"email"`
}

type AccountCreation struct {
	UserID               uuid.UUID `json:"user_id"`
	Email                string    `json:"email"`
	VerificationRequired bool      `json:"verification_required"`
}

// StudentService is the student roster workflow.
type StudentService struct {
	gw     StudentGateway
	logger *zap.Logger
	now    func() time.Time
}

func NewStudentService(gw StudentGateway, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{gw: gw, logger: logger, now: time.Now}
}

func (s *StudentService) ListStudents(ctx context.Context) ([]models.Profile, error) {
	students, err := s.gw.ListStudents(ctx)
	if err != nil {
		return nil, &FetchError{Op: "students", Err: err}
	}
	return students, nil
}

func (s *StudentService) AllocatedStudentIDs(ctx context.Context) (AllocatedSet, error) {
	rows, err := s.gw.ListActiveAllocations(ctx)
	if err != nil {
		return nil, &FetchError{Op: "room allocations", Err: err}
	}
	return NewAllocatedSet(rows), nil
}

// Roster reads students and allocations in parallel, then filters.
func (s *StudentService) Roster(ctx context.Context, searchTerm string, status StatusFilter) (*Roster, error) {
	var (
		students  []models.Profile
		allocated AllocatedSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.ListStudents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		allocated, err = s.AllocatedStudentIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := FilterStudents(students, searchTerm, status, allocated)
	out := &Roster{Students: make([]RosterEntry, 0, len(filtered)), Total: len(students)}
	for _, p := range filtered {
		out.Students = append(out.Students, RosterEntry{Profile: p, Allocated: allocated.Has(p.ID)})
	}
	return out, nil
}

// ListUnallocatedStudents is recomputed on every call, ordered by name.
func (s *StudentService) ListUnallocatedStudents(ctx context.Context) ([]models.Profile, error) {
	students, err := s.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	allocated, err := s.AllocatedStudentIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := FilterStudents(students, "", StatusUnallocated, allocated)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *StudentService) GetStudent(ctx context.Context, id uuid.UUID) (*StudentDetail, error) {
	p, err := s.gw.GetProfile(ctx, id)
	if err != nil {
		return nil, &FetchError{Op: "student", Err: err}
	}
	rows, err := s.gw.ListActiveAllocations(ctx)
	if err != nil {
		return nil, &FetchError{Op: "room allocations", Err: err}
	}
	detail := &StudentDetail{Profile: *p}
	for _, a := range rows {
		if a.StudentID == id {
			roomID := a.RoomID
			detail.Allocated = true
			detail.RoomID = &roomID
			break
		}
	}
	return detail, nil
}

// CreateStudentAccount registers the identity with the profile fields as
// metadata. On success the student still has to verify the e-mail address
// before the account can sign in.
func (s *StudentService) CreateStudentAccount(ctx context.Context, in CreateStudentInput) (*AccountCreation, error) {
	if utils.PasswordTooShort(in.Password) {
		return nil, ErrWeakPassword
	}
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.JoiningDate == "" {
		in.JoiningDate = s.now().Format("2006-01-02")
	}

	res, err := s.gw.SignUp(ctx, models.SignUpRequest{
		Email:    in.Email,
		Password: in.Password,
		Metadata: map[string]any{
			"full_name":    in.FullName,
			"role":         models.RoleStudent,
			"phone":        in.Phone,
			"course":       in.Course,
			"joining_date": in.JoiningDate,
		},
	})
	if err != nil {
		return nil, &MutationError{Op: "create student account", Err: err}
	}
	if res == nil || res.User == nil {
		return nil, ErrSignUpIncomplete
	}
	if len(res.User.Identities) == 0 {
		return nil, ErrAccountExists
	}

	s.logger.Info("student account created", zap.String("user_id", res.User.ID.String()))
	return &AccountCreation{
		UserID:               res.User.ID,
		Email:                res.User.Email,
		VerificationRequired: res.User.EmailConfirmedAt == nil,
	}, nil
}

// UpdateStudent never touches the e-mail address.
func (s *StudentService) UpdateStudent(ctx context.Context, id uuid.UUID, in UpdateStudentInput) (*models.Profile, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	upd := models.ProfileUpdate{
		FullName: in.FullName,
		Phone:    in.Phone,
		Course:   in.Course,
	}
	if upd.Empty() {
		return nil, &ValidationError{Err: errors.New("no editable field supplied")}
	}

	p, err := s.gw.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, &MutationError{Op: "update student", Err: err}
	}
	return p, nil
}

// DeleteStudent removes the profile row only. The identity record survives and
// must be revoked separately by an administrator of the identity provider.
func (s *StudentService) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	if err := s.gw.DeleteProfile(ctx, id); err != nil {
		return &MutationError{Op: "delete student", Err: err}
	}
	s.logger.Warn("student profile deleted, identity record left in place", zap.String("student_id", id.String()))
	return nil
}
