package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/ingvionio/fullstack/internal/application/command"
	"github.com/ingvionio/fullstack/internal/application/query"
	"github.com/ingvionio/fullstack/internal/application/saga"
	"github.com/ingvionio/fullstack/internal/infrastructure/auth"
	"github.com/ingvionio/fullstack/internal/infrastructure/messaging"
	"github.com/ingvionio/fullstack/internal/infrastructure/persistence/sqlite"
	"github.com/ingvionio/fullstack/internal/infrastructure/storage"
	"github.com/ingvionio/fullstack/internal/interface/http/handlers"
	"github.com/ingvionio/fullstack/pkg/timeutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// ══════════════════════════════════════════════════════════════════════════════
// Fixture
// ══════════════════════════════════════════════════════════════════════════════

type apiEnv struct {
	t      *testing.T
	srv    *Server
	tokens *auth.TokenIssuer
	health *handlers.CompositeHealthChecker
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *ResponseMeta   `json:"meta"`
}

func newAPI(t *testing.T, requireAuth bool) *apiEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.Open(ctx, filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Close() })

	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })

	engine := saga.NewAchievementEngine(saga.EngineConfig{Now: timeutil.Fixed(now)})
	cmd := command.Deps{UoW: db, Engine: engine, Publisher: bus}
	qry := query.Deps{UoW: db, Engine: engine, Publisher: bus}
	_, err = command.SeedAchievements(ctx, cmd)
	require.NoError(t, err)

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour, "test")
	require.NoError(t, err)
	mediaRoot := filepath.Join(dir, "media")
	blobs := storage.NewLocalStore(mediaRoot, "/media", 1<<20)

	health := handlers.NewCompositeHealthChecker("test")
	health.AddCheck("database", handlers.PingCheck(db))

	cfg := DefaultConfig()
	cfg.RequireAuth = requireAuth
	cfg.MediaRoot = mediaRoot

	srv, err := NewServer(cfg, Dependencies{
		Auth:          command.NewAuthHandler(cmd, hasher, tokens),
		Users:         command.NewUserHandler(cmd, hasher, blobs),
		Taxonomy:      command.NewTaxonomyHandler(cmd),
		Points:        command.NewPointHandler(cmd),
		Marks:         command.NewMarkHandler(cmd, blobs),
		Content:       query.NewContentHandler(qry),
		Achievements:  query.NewAchievementsHandler(qry, nil),
		Activity:      query.NewActivityHandler(qry),
		Progress:      query.NewUserProgressHandler(qry),
		Leaderboard:   query.NewLeaderboardHandler(qry, nil),
		Tokens:        tokens,
		HealthChecker: health,
	})
	require.NoError(t, err)
	return &apiEnv{t: t, srv: srv, tokens: tokens, health: health}
}

func (e *apiEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
	}
	return env
}

// create posts body and returns the new entity id.
func (e *apiEnv) create(path string, body any, token string) int64 {
	e.t.Helper()
	rec := e.do(http.MethodPost, path, body, token)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID int64 `json:"id"`
	}
	decodeEnvelope(e.t, rec, &out)
	require.NotZero(e.t, out.ID)
	return out.ID
}

func (e *apiEnv) newUser(name string) int64 {
	return e.create("/api/v1/users", map[string]any{
		"username": name,
		"email":    name + "@example.com",
		"password": "secret123",
	}, "")
}

type taxonomyIDs struct {
	industry, sub int64
	criteria      []int64
}

func (e *apiEnv) taxonomy(name string, base float64, token string) taxonomyIDs {
	ind := e.create("/api/v1/industries", map[string]any{"name": name}, token)
	sub := e.create("/api/v1/sub-industries", map[string]any{"name": name + " sub", "industry_id": ind, "base_score": base}, token)
	c1 := e.create("/api/v1/criteria", map[string]any{"text": "Чистота", "industry_id": ind}, token)
	c2 := e.create("/api/v1/criteria", map[string]any{"text": "Персонал", "industry_id": ind}, token)
	return taxonomyIDs{industry: ind, sub: sub, criteria: []int64{c1, c2}}
}

// ══════════════════════════════════════════════════════════════════════════════
// Tests
// ══════════════════════════════════════════════════════════════════════════════

func TestHealthAndLive(t *testing.T) {
	e := newAPI(t, false)

	rec := e.do(http.MethodGet, "/live", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var status handlers.HealthStatus
	decodeEnvelope(t, rec, &status)
	assert.True(t, status.Checks["database"].Healthy)

	e.health.AddCheck("cache", func(context.Context) error { return errors.New("connection refused") })
	rec = e.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeEnvelope(t, rec, &status)
	assert.False(t, env.Success)
	assert.Equal(t, "failed: cache", status.Message)
}

func TestRequestIDAndCORS(t *testing.T) {
	e := newAPI(t, false)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set(handlers.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(handlers.RequestIDHeader))
	assert.Equal(t, "req-123", decodeEnvelope(t, rec, nil).Meta.RequestID)

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/points", nil)
	req.Header.Set("Origin", "https://map.example.com")
	rec = httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://map.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUsers_CreateLoginAndConflicts(t *testing.T) {
	e := newAPI(t, false)
	id := e.newUser("anna")

	rec := e.do(http.MethodPost, "/api/v1/users", map[string]any{
		"username": "anna", "email": "other@example.com", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeConflict, decodeEnvelope(t, rec, nil).Error.Code)

	rec = e.do(http.MethodPost, "/api/v1/auth/login", map[string]any{"username": "anna@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login loginResponse
	decodeEnvelope(t, rec, &login)
	assert.Equal(t, id, login.User.ID)
	assert.Equal(t, "bearer", login.TokenType)
	claims, err := e.tokens.Parse(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(id), claims.Subject)

	rec = e.do(http.MethodPost, "/api/v1/auth/login", map[string]any{"username": "anna", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = e.do(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", id), map[string]any{"username": "anna_k"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u query.UserDTO
	decodeEnvelope(t, rec, &u)
	assert.Equal(t, "anna_k", u.Username)

	rec = e.do(http.MethodGet, "/api/v1/users?limit=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *decodeEnvelope(t, rec, nil).Meta.Count)
}

func TestPayloadValidation(t *testing.T) {
	e := newAPI(t, false)

	rec := e.do(http.MethodPost, "/api/v1/users", map[string]any{
		"username": "anna", "email": "anna@example.com", "password": "123",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.Equal(t, codeBadRequest, env.Error.Code)
	assert.NotEmpty(t, env.Error.Details)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/industries", strings.NewReader("{not json"))
	out := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)

	rec = e.do(http.MethodPost, "/api/v1/points", map[string]any{
		"name": "Клиника", "latitude": 91, "longitude": 0, "industry_id": 1, "sub_industry_id": 1,
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPointsAndMarks_Flow(t *testing.T) {
	e := newAPI(t, false)
	tx := e.taxonomy("Медицина", 3, "")
	owner := e.newUser("owner")
	author := e.newUser("author")

	rec := e.do(http.MethodPost, "/api/v1/points", map[string]any{
		"name": "Клиника", "latitude": 43.2, "longitude": 76.9,
		"industry_id": tx.industry, "sub_industry_id": tx.sub, "creator_id": owner,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created pointCreatedResponse
	decodeEnvelope(t, rec, &created)
	assert.Equal(t, 3.0, created.Mark)
	require.NotNil(t, created.Reward)
	assert.Equal(t, 100, created.Reward.TotalXP)
	assert.Equal(t, 2, created.Reward.NewLevel)
	assert.True(t, created.Reward.LeveledUp)
	require.Len(t, created.Reward.Unlocked, 1)

	rec = e.do(http.MethodPost, "/api/v1/marks", map[string]any{
		"point_id": created.ID, "user_id": author,
		"question_ids": tx.criteria, "answers": []int{4, 5}, "weights": []float64{1, 1},
		"comment": "Хорошо",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var mark markCreatedResponse
	decodeEnvelope(t, rec, &mark)
	assert.InDelta(t, 4.5, mark.TotalScore, 1e-9)
	assert.InDelta(t, 3.75, mark.PointRating, 1e-9)
	require.NotNil(t, mark.Reward)
	assert.Equal(t, 45, mark.Reward.XPAwarded)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/points/%d", created.ID), nil, "")
	var p query.PointDTO
	decodeEnvelope(t, rec, &p)
	assert.InDelta(t, 3.75, p.Mark, 1e-9)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/points/%d/criteria", created.ID), nil, "")
	assert.Equal(t, 2, *decodeEnvelope(t, rec, nil).Meta.Count)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/comments", author), nil, "")
	var comments []query.CommentDTO
	decodeEnvelope(t, rec, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "Хорошо", comments[0].Comment)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/activity?limit=3", author), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var feed []query.ActivityDTO
	decodeEnvelope(t, rec, &feed)
	assert.NotEmpty(t, feed)
	assert.LessOrEqual(t, len(feed), 3)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/gamification/users/%d/progress", owner), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var progress struct {
		CurrentLevel int `json:"current_level"`
		CurrentXP    int `json:"current_xp"`
	}
	decodeEnvelope(t, rec, &progress)
	assert.Equal(t, 2, progress.CurrentLevel)
	assert.Equal(t, 100, progress.CurrentXP)

	rec = e.do(http.MethodGet, "/api/v1/gamification/leaderboard?limit=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var board []struct {
		UserID int64 `json:"user_id"`
		Rank   int   `json:"rank"`
	}
	env := decodeEnvelope(t, rec, &board)
	assert.Equal(t, query.SourceDatabase, env.Meta.Source)
	require.Len(t, board, 2)
	assert.Equal(t, owner, board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/achievements/users/%d/achievements", author), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reports []query.AchievementProgressDTO
	decodeEnvelope(t, rec, &reports)
	assert.NotEmpty(t, reports)

	rec = e.do(http.MethodDelete, fmt.Sprintf("/api/v1/marks/%d", mark.ID), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/points/%d", created.ID), nil, "")
	decodeEnvelope(t, rec, &p)
	assert.Equal(t, 3.0, p.Mark)
}

func TestErrorMapping(t *testing.T) {
	e := newAPI(t, false)
	tx := e.taxonomy("Медицина", 3, "")
	e.create("/api/v1/points", map[string]any{
		"name": "Клиника", "latitude": 0, "longitude": 0,
		"industry_id": tx.industry, "sub_industry_id": tx.sub,
	}, "")

	cases := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"missing point", http.MethodGet, "/api/v1/points/999", http.StatusNotFound, codeNotFound},
		{"bad id", http.MethodGet, "/api/v1/points/abc", http.StatusBadRequest, codeValidation},
		{"industry in use", http.MethodDelete, fmt.Sprintf("/api/v1/industries/%d", tx.industry), http.StatusConflict, codeConflict},
		{"feed limit out of range", http.MethodGet, "/api/v1/users/1/activity?limit=0", http.StatusBadRequest, codeValidation},
		{"unknown user feed", http.MethodGet, "/api/v1/users/999/activity", http.StatusNotFound, codeNotFound},
		{"unknown route", http.MethodGet, "/api/v1/nothing", http.StatusNotFound, codeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(tc.method, tc.path, nil, "")
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeEnvelope(t, rec, nil).Error.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	e := newAPI(t, true)
	anna := e.newUser("anna")
	boris := e.newUser("boris")
	token, _, err := e.tokens.Issue(anna, "anna")
	require.NoError(t, err)

	rec := e.do(http.MethodPost, "/api/v1/industries", map[string]any{"name": "Медицина"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodPost, "/api/v1/industries", map[string]any{"name": "Медицина"}, token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(http.MethodGet, "/api/v1/industries", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", boris), map[string]any{"username": "hijack"}, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	tx := e.taxonomy("Еда", 4, token)
	rec = e.do(http.MethodPost, "/api/v1/points", map[string]any{
		"name": "Кафе", "latitude": 0, "longitude": 0,
		"industry_id": tx.industry, "sub_industry_id": tx.sub,
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created pointCreatedResponse
	decodeEnvelope(t, rec, &created)
	require.NotNil(t, created.CreatorID)
	assert.Equal(t, anna, *created.CreatorID)
}

func TestAvatarUploadServedFromMedia(t *testing.T) {
	e := newAPI(t, false)
	id := e.newUser("anna")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/avatar", id), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var u query.UserDTO
	decodeEnvelope(t, rec, &u)
	require.NotNil(t, u.AvatarURL)
	assert.True(t, strings.HasPrefix(*u.AvatarURL, fmt.Sprintf("/media/avatars/user_%d/", id)), *u.AvatarURL)

	rec = e.do(http.MethodGet, *u.AvatarURL, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = e.do(http.MethodGet, "/media/avatars/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/avatar", id), strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
