package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnkhanh/hostel-server/models"
)

const (
	restPrefix   = "/rest/v1"
	authPrefix   = "/auth/v1"
	objectAccept = "application/vnd.pgrst.object+json"
)

type SupabaseConfig struct {
	URL        string
	Key        string // anon key; sent as apikey on every call
	RedirectTo string // where the verification e-mail sends the student
	Timeout    time.Duration
	RetryCount int
}

// Supabase is the gateway over the hosted PostgREST and GoTrue endpoints.
type Supabase struct {
	http       *resty.Client
	key        string
	redirectTo string
	logger     *zap.Logger
}

var _ Gateway = (*Supabase)(nil)

func NewSupabase(cfg SupabaseConfig, logger *zap.Logger) *Supabase {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("apikey", cfg.Key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Supabase{
		http:       client,
		key:        cfg.Key,
		redirectTo: cfg.RedirectTo,
		logger:     logger,
	}
}

// request starts a call authorised as the caller when an access token is on
// the context, else as the anonymous role.
func (s *Supabase) request(ctx context.Context) *resty.Request {
	token := AccessToken(ctx)
	if token == "" {
		token = s.key
	}
	return s.http.R().SetContext(ctx).SetAuthToken(token)
}

func (s *Supabase) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		s.logger.Error("gateway call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		if resp.StatusCode() == http.StatusNotAcceptable && req.Header.Get("Accept") == objectAccept {
			return ErrNotFound
		}
		gerr := decodeError(resp)
		s.logger.Warn("gateway rejected call",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", gerr.Status),
			zap.String("code", gerr.Code),
			zap.String("message", gerr.Message),
		)
		return gerr
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (s *Supabase) Ping(ctx context.Context) error {
	return s.do(s.request(ctx), http.MethodGet, restPrefix+"/", nil)
}

func (s *Supabase) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	req := s.request(ctx).SetQueryParams(map[string]string{
		"select": "*",
		"order":  "room_number.asc",
	})
	if err := s.do(req, http.MethodGet, restPrefix+"/rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Supabase) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	req := s.request(ctx).
		SetHeader("Accept", objectAccept).
		SetQueryParams(map[string]string{"select": "*", "id": eq(id)})
	if err := s.do(req, http.MethodGet, restPrefix+"/rooms", &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Supabase) InsertRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	body := map[string]any{
		"room_number": room.RoomNumber,
		"type":        room.Type,
		"status":      room.Status,
		"occupants":   room.Occupants,
	}
	var rows []models.Room
	req := s.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(body)
	if err := s.do(req, http.MethodPost, restPrefix+"/rooms", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *Supabase) UpdateRoom(ctx context.Context, id int64, upd models.RoomUpdate) (*models.Room, error) {
	var rows []models.Room
	req := s.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", eq(id)).
		SetBody(upd)
	if err := s.do(req, http.MethodPatch, restPrefix+"/rooms", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *Supabase) DeleteRoom(ctx context.Context, id int64) error {
	req := s.request(ctx).SetQueryParam("id", eq(id))
	return s.do(req, http.MethodDelete, restPrefix+"/rooms", nil)
}

func (s *Supabase) ListActiveAllocations(ctx context.Context) ([]models.ActiveAllocation, error) {
	var rows []models.ActiveAllocation
	req := s.request(ctx).SetQueryParams(map[string]string{
		"select":    "room_id,student_id,profiles(full_name)",
		"is_active": "eq.true",
	})
	if err := s.do(req, http.MethodGet, restPrefix+"/room_allocations", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Supabase) AllocateRoom(ctx context.Context, studentID uuid.UUID, roomID int64) error {
	req := s.request(ctx).SetBody(map[string]any{
		"p_student_id": studentID,
		"p_room_id":    roomID,
	})
	return s.do(req, http.MethodPost, restPrefix+"/rpc/allocate_room", nil)
}

func (s *Supabase) DeallocateStudent(ctx context.Context, studentID uuid.UUID) error {
	var rows []models.RoomAllocation
	req := s.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(map[string]string{
			"student_id": "eq." + studentID.String(),
			"is_active":  "eq.true",
		}).
		SetBody(map[string]any{"is_active": false})
	if err := s.do(req, http.MethodPatch, restPrefix+"/room_allocations", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoActiveRoom
	}
	return nil
}

func (s *Supabase) ListStudents(ctx context.Context) ([]models.Profile, error) {
	var students []models.Profile
	req := s.request(ctx).SetQueryParams(map[string]string{
		"select": "id,full_name,email,course,phone,role,joining_date,created_at",
		"role":   "eq." + models.RoleStudent,
		"order":  "created_at.desc",
	})
	if err := s.do(req, http.MethodGet, restPrefix+"/profiles", &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (s *Supabase) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	req := s.request(ctx).
		SetHeader("Accept", objectAccept).
		SetQueryParams(map[string]string{"select": "*", "id": "eq." + id.String()})
	if err := s.do(req, http.MethodGet, restPrefix+"/profiles", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Supabase) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	var rows []models.Profile
	req := s.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id.String()).
		SetBody(upd)
	if err := s.do(req, http.MethodPatch, restPrefix+"/profiles", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *Supabase) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	req := s.request(ctx).SetQueryParam("id", "eq."+id.String())
	return s.do(req, http.MethodDelete, restPrefix+"/profiles", nil)
}

// signUpResponse accepts both shapes GoTrue answers with: the bare user when
// e-mail confirmation is on, or {user, session} when it is off.
type signUpResponse struct {
	models.AuthUser
	User *models.AuthUser `json:"user"`
}

func (s *Supabase) SignUp(ctx context.Context, in models.SignUpRequest) (*models.SignUpResult, error) {
	redirect := in.RedirectTo
	if redirect == "" {
		redirect = s.redirectTo
	}

	var out signUpResponse
	req := s.http.R().SetContext(ctx).SetAuthToken(s.key).SetBody(in)
	if redirect != "" {
		req.SetQueryParam("redirect_to", redirect)
	}
	if err := s.do(req, http.MethodPost, authPrefix+"/signup", &out); err != nil {
		return nil, err
	}

	switch {
	case out.User != nil:
		return &models.SignUpResult{User: out.User}, nil
	case out.ID != uuid.Nil:
		u := out.AuthUser
		return &models.SignUpResult{User: &u}, nil
	default:
		return &models.SignUpResult{}, nil
	}
}

func (s *Supabase) ListMaintenanceRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	var rows []models.MaintenanceRequest
	req := s.request(ctx).SetQueryParams(map[string]string{
		"select": "*",
		"order":  "created_at.desc",
	})
	if err := s.do(req, http.MethodGet, restPrefix+"/maintenance_requests", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Supabase) GetMaintenanceRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	var r models.MaintenanceRequest
	req := s.request(ctx).
		SetHeader("Accept", objectAccept).
		SetQueryParams(map[string]string{"select": "*", "id": eq(id)})
	if err := s.do(req, http.MethodGet, restPrefix+"/maintenance_requests", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func eq(id int64) string {
	return "eq." + strconv.FormatInt(id, 10)
}

// decodeError reads both the PostgREST ({message, code, details, hint}) and the
// GoTrue ({msg | error_description, error_code}) error bodies.
func decodeError(resp *resty.Response) *Error {
	var body struct {
		Message          string  `json:"message"`
		Msg              string  `json:"msg"`
		ErrorDescription string  `json:"error_description"`
		ErrorText        string  `json:"error"`
		Code             any     `json:"code"`
		ErrorCode        string  `json:"error_code"`
		Details          *string `json:"details"`
		Hint             *string `json:"hint"`
	}
	_ = json.Unmarshal(resp.Body(), &body)

	e := &Error{Status: resp.StatusCode()}
	switch {
	case body.Message != "":
		e.Message = body.Message
	case body.Msg != "":
		e.Message = body.Msg
	case body.ErrorDescription != "":
		e.Message = body.ErrorDescription
	case body.ErrorText != "":
		e.Message = body.ErrorText
	default:
		e.Message = http.StatusText(resp.StatusCode())
	}
	if c, ok := body.Code.(string); ok {
		e.Code = c
	}
	if body.ErrorCode != "" {
		e.Code = body.ErrorCode
	}
	if body.Details != nil {
		e.Details = *body.Details
	}
	if body.Hint != nil {
		e.Hint = *body.Hint
	}
	return e
}
