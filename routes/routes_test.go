package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/middleware"
	"github.com/vnkhanh/hostel-server/models"
	"github.com/vnkhanh/hostel-server/utils"
)

const secret = "routes-secret"

type testServer struct {
	router *gin.Engine
	gw     *gateway.Memory
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := gateway.NewMemory()
	admin := models.Profile{ID: uuid.New(), FullName: "Warden", Email: "warden@example.com", Role: models.RoleAdmin}
	gw.PutProfile(admin)
	tok, err := utils.GenerateToken(secret, admin.ID.String(), admin.Email, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	SetupRoutes(r, Deps{
		Gateway:       gw,
		JWTSecret:     secret,
		SignupLimiter: middleware.NewIPRateLimiter(60, 10, time.Minute),
		Logger:        zap.NewNop(),
	})
	return &testServer{router: r, gw: gw, token: tok}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoomLifecycle(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/students", map[string]any{
		"full_name": "Asha Rao",
		"email":     "asha@example.com",
		"password":  "secret1",
		"course":    "Physics",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	account := body["account"].(map[string]any)
	assert.Equal(t, true, account["verification_required"])
	assert.Contains(t, body["message"], "must verify their email")
	studentID := account["user_id"].(string)

	w, body = s.do(t, http.MethodPost, "/api/rooms", map[string]any{
		"room_number": "101",
		"type":        "Double",
		"status":      "Occupied",
		"occupants":   7,
		"student_id":  studentID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	room := body["room"].(map[string]any)
	assert.Equal(t, "Vacant", room["status"])
	assert.Equal(t, float64(2), room["occupants"])
	assert.ElementsMatch(t, []any{"rooms", "room_allocations"}, body["refetch"])
	roomPath := "/api/rooms/" + jsonID(room["id"])

	w, body = s.do(t, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	occupants := body["occupants"].(map[string]any)
	assert.Equal(t, []any{"Asha Rao"}, occupants[jsonID(room["id"])])

	w, _ = s.do(t, http.MethodPut, roomPath, map[string]any{"room_number": "101", "type": "Single", "status": "Occupied"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.do(t, http.MethodDelete, roomPath, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, body["message"], "deallocate students first")

	w, _ = s.do(t, http.MethodDelete, "/api/allocations/"+studentID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.do(t, http.MethodGet, "/api/students/unallocated", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["students"], 1)

	w, _ = s.do(t, http.MethodDelete, roomPath, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRoom_PartialSuccess(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/rooms", map[string]any{
		"room_number": "201",
		"type":        "Single",
		"student_id":  uuid.NewString(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, body["allocation_error"], "Student not found")
	assert.NotNil(t, body["room"])
}

func TestCreateRoom_InvalidType(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/rooms", map[string]any{"room_number": "301", "type": "Quad"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateStudent_Outcomes(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]any{"full_name": "Ben", "email": "ben@example.com", "password": "12345"}

	w, _ := s.do(t, http.MethodPost, "/api/students", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	payload["password"] = "123456"
	w, _ = s.do(t, http.MethodPost, "/api/students", payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, body := s.do(t, http.MethodPost, "/api/students", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, body["message"], "already exists")
}

func TestStudentsFilterAndUpdate(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"Asha", "Ben"} {
		w, _ := s.do(t, http.MethodPost, "/api/students", map[string]any{
			"full_name": name, "email": name + "@example.com", "password": "secret1",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, body := s.do(t, http.MethodGet, "/api/students?search=ash&status=unallocated", nil)
	require.Equal(t, http.StatusOK, w.Code)
	students := body["students"].([]any)
	require.Len(t, students, 1)
	asha := students[0].(map[string]any)
	assert.Equal(t, float64(2), body["total"])

	w, body = s.do(t, http.MethodPut, "/api/students/"+asha["id"].(string), map[string]any{
		"full_name": "Asha Rao",
		"email":     "changed@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := body["student"].(map[string]any)
	assert.Equal(t, "Asha Rao", updated["full_name"])
	assert.Equal(t, "asha@example.com", updated["email"])

	w, _ = s.do(t, http.MethodGet, "/api/students?status=bogus", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMaintenanceDetail(t *testing.T) {
	s := newTestServer(t)
	s.gw.PutMaintenanceRequest(models.MaintenanceRequest{ID: 1, Issue: "Leaking tap", RoomNumber: "101", Status: models.MaintenancePending})

	w, body := s.do(t, http.MethodGet, "/api/maintenance/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "N/A", body["reporter_name"])

	w, _ = s.do(t, http.MethodGet, "/api/maintenance/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRosterExport(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/exports/roster", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())

	w, _ = s.do(t, http.MethodPost, "/api/exports/roster", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func jsonID(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
