package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cetiassist/asesoria_backend/internal/auth"
	"github.com/cetiassist/asesoria_backend/internal/feed"
	"github.com/cetiassist/asesoria_backend/internal/metrics"
	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/cetiassist/asesoria_backend/internal/repository/repotest"
	"github.com/cetiassist/asesoria_backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// idleNotifier blocks until the context is cancelled; router tests
// drive the watcher through Subscribe only.
type idleNotifier struct{}

func (idleNotifier) WaitForChange(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type testServer struct {
	router         *gin.Engine
	tokens         *auth.TokenManager
	users          *service.UserService
	availabilities *repotest.FakeAvailabilityStore
	reservations   *repotest.FakeReservationStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	availStore := repotest.NewFakeAvailabilityStore()
	reservationStore := repotest.NewFakeReservationStore()
	userStore := repotest.NewFakeUserStore()

	users := service.NewUserService(userStore, "@ceti.mx", logger)
	availabilities := service.NewAvailabilityService(availStore, metrics.Nop{}, logger, 500)
	bookings := service.NewBookingService(availStore, reservationStore, metrics.Nop{}, logger)
	watcher := feed.NewWatcher(availStore, idleNotifier{}, time.Hour, metrics.Nop{}, logger)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	h := NewHandlers(users, availabilities, bookings, watcher, tokens, logger)
	return &testServer{
		router:         NewRouter(h, "test", nil),
		tokens:         tokens,
		users:          users,
		availabilities: availStore,
		reservations:   reservationStore,
	}
}

// signUp creates a user through the service and returns it together
// with a Bearer header value.
func (ts *testServer) signUp(t *testing.T, email string, role model.Role, subjects ...string) (*model.User, string) {
	t.Helper()

	user, err := ts.users.Register(context.Background(), service.RegisterInput{
		Email:    email,
		Password: "hunter2",
		Name:     "Test User",
		Role:     role,
		Subjects: subjects,
	})
	require.NoError(t, err)

	token, err := ts.tokens.Issue(user)
	require.NoError(t, err)
	return user, "Bearer " + token
}

func (ts *testServer) do(t *testing.T, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// publish creates an open slot tomorrow via the API and returns its id.
func (ts *testServer) publish(t *testing.T, professorAuth string) string {
	t.Helper()

	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02")
	rec := ts.do(t, http.MethodPost, "/api/availabilities", professorAuth, gin.H{
		"subject":   "Calculus",
		"modality":  "virtual",
		"date":      tomorrow,
		"startTime": "10:00",
		"endTime":   "11:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Availability
	decodeJSON(t, rec, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestRegisterLoginMe(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "ana@ceti.mx",
		"password": "hunter2",
		"name":     "Ana",
		"role":     "student",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ana@ceti.mx",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	decodeJSON(t, rec, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, model.RoleStudent, login.User.Role)

	rec = ts.do(t, http.MethodGet, "/api/me", "Bearer "+login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me model.User
	decodeJSON(t, rec, &me)
	assert.Equal(t, "ana@ceti.mx", me.Email)
}

func TestRegisterRejectsForeignDomain(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "ana@gmail.com",
		"password": "hunter2",
		"name":     "Ana",
		"role":     "student",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "ana@ceti.mx", model.RoleStudent)

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ana@ceti.mx",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/me", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/me", "Token abc", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublishRequiresProfessor(t *testing.T) {
	ts := newTestServer(t)
	_, studentAuth := ts.signUp(t, "ana@ceti.mx", model.RoleStudent)

	rec := ts.do(t, http.MethodPost, "/api/availabilities", studentAuth, gin.H{
		"subject":   "Calculus",
		"modality":  "virtual",
		"date":      "2099-01-01",
		"startTime": "10:00",
		"endTime":   "11:00",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublishAndList(t *testing.T) {
	ts := newTestServer(t)
	prof, profAuth := ts.signUp(t, "prof@ceti.mx", model.RoleProfessor, "Calculus")
	_, studentAuth := ts.signUp(t, "ana@ceti.mx", model.RoleStudent)

	id := ts.publish(t, profAuth)

	rec := ts.do(t, http.MethodGet, "/api/availabilities", studentAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []*model.Availability
	decodeJSON(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)
	assert.Equal(t, prof.ID, listed[0].ProfessorID)

	// Scoped to another professor the list is empty.
	rec = ts.do(t, http.MethodGet, "/api/availabilities?professorId=nobody", studentAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())
}

func TestReserveFlow(t *testing.T) {
	ts := newTestServer(t)
	_, profAuth := ts.signUp(t, "prof@ceti.mx", model.RoleProfessor, "Calculus")
	ana, anaAuth := ts.signUp(t, "ana@ceti.mx", model.RoleStudent)
	_, beaAuth := ts.signUp(t, "bea@ceti.mx", model.RoleStudent)

	id := ts.publish(t, profAuth)

	rec := ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/reserve", anaAuth, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reservation model.Reservation
	decodeJSON(t, rec, &reservation)
	assert.Equal(t, ana.ID, reservation.StudentID)
	assert.Equal(t, id, reservation.AvailabilityID)

	// Losing contender gets a conflict.
	rec = ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/reserve", beaAuth, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/reservations", anaAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var mine []*model.Reservation
	decodeJSON(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0].AvailabilityID)
}

func TestReserveUnknownSlot(t *testing.T) {
	ts := newTestServer(t)
	_, studentAuth := ts.signUp(t, "ana@ceti.mx", model.RoleStudent)

	rec := ts.do(t, http.MethodPost, "/api/availabilities/missing/reserve", studentAuth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveRequiresStudent(t *testing.T) {
	ts := newTestServer(t)
	_, profAuth := ts.signUp(t, "prof@ceti.mx", model.RoleProfessor, "Calculus")
	id := ts.publish(t, profAuth)

	rec := ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/reserve", profAuth, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancel(t *testing.T) {
	ts := newTestServer(t)
	_, profAuth := ts.signUp(t, "prof@ceti.mx", model.RoleProfessor, "Calculus")
	_, anaAuth := ts.signUp(t, "ana@ceti.mx", model.RoleStudent)
	_, strangerAuth := ts.signUp(t, "bea@ceti.mx", model.RoleStudent)

	id := ts.publish(t, profAuth)
	rec := ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/reserve", anaAuth, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Neither party: forbidden.
	rec = ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/cancel", strangerAuth, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The reserving student may cancel.
	rec = ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/cancel", anaAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Cancelling an open slot is a conflict.
	rec = ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/cancel", anaAuth, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestValidateReservation(t *testing.T) {
	ts := newTestServer(t)
	_, profAuth := ts.signUp(t, "prof@ceti.mx", model.RoleProfessor, "Calculus")
	_, anaAuth := ts.signUp(t, "ana@ceti.mx", model.RoleStudent)
	_, beaAuth := ts.signUp(t, "bea@ceti.mx", model.RoleStudent)

	id := ts.publish(t, profAuth)

	rec := ts.do(t, http.MethodPost, "/api/reservations/validate", anaAuth, gin.H{"availabilityId": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/reserve", anaAuth, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/reservations/validate", beaAuth, gin.H{"availabilityId": id})
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)

	var verdict struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	decodeJSON(t, rec, &verdict)
	assert.False(t, verdict.Valid)
	assert.NotEmpty(t, verdict.Message)
}

func TestAvailableSessionsIncludesReserved(t *testing.T) {
	ts := newTestServer(t)
	_, profAuth := ts.signUp(t, "prof@ceti.mx", model.RoleProfessor, "Calculus")
	_, anaAuth := ts.signUp(t, "ana@ceti.mx", model.RoleStudent)

	id := ts.publish(t, profAuth)
	rec := ts.do(t, http.MethodPost, "/api/availabilities/"+id+"/reserve", anaAuth, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/sessions/available", anaAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []*model.Availability
	decodeJSON(t, rec, &sessions)
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].IsAvailable)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFeedWebSocket(t *testing.T) {
	ts := newTestServer(t)
	_, profAuth := ts.signUp(t, "prof@ceti.mx", model.RoleProfessor, "Calculus")
	id := ts.publish(t, profAuth)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/feed/ws"
	header := http.Header{"Authorization": []string{profAuth}}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snapshot []*model.Availability
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, id, snapshot[0].ID)
}
