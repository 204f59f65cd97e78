package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pitchcraft/auth"
	"pitchcraft/generator"
	"pitchcraft/pipeline"
	"pitchcraft/store"
)

type llmFunc func(ctx context.Context, prompt generator.Prompt) (string, error)

func (f llmFunc) Complete(ctx context.Context, prompt generator.Prompt) (string, error) {
	return f(ctx, prompt)
}

const ideaJSON = `{"title":"EcoTrack","description":"carbon footprint tracker for households","industry":"Technology","tone":"innovative"}`

func newTestServer(t *testing.T, llm generator.LLMClient, kind generator.SchemaKind) *Server {
	t.Helper()
	srv, _ := newTestServerWithDB(t, llm, kind)
	return srv
}

func newTestServerWithDB(t *testing.T, llm generator.LLMClient, kind generator.SchemaKind) (*Server, *gorm.DB) {
	t.Helper()
	db, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "pitches.db"), LogLevel: gormlogger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	agent, err := generator.NewAgent(llm, generator.WithSchema(kind), generator.WithFallback(generator.NewFallback(1)))
	require.NoError(t, err)
	svc, err := pipeline.NewService(agent, store.NewPitchRepository(db, store.WithRetry(0, time.Millisecond)))
	require.NoError(t, err)

	identity := auth.NewTokenProvider(map[string]string{"tok-a": "alice", "tok-b": "bob"})
	srv, err := New(svc, identity, Config{GenerateTimeout: 5 * time.Second})
	require.NoError(t, err)
	return srv, db
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type pitchJSON struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"ownerId"`
	Path           string            `json:"path"`
	Status         string            `json:"status"`
	Schema         string            `json:"schema"`
	UsedFallback   bool              `json:"usedFallback"`
	CreatedAt      *time.Time        `json:"createdAt"`
	Idea           generator.Idea    `json:"idea"`
	GeneratedPitch map[string]string `json:"generatedPitch"`
	Summary        generator.Summary `json:"summary"`
}

type listJSON struct {
	Pitches []pitchJSON `json:"pitches"`
	Count   int         `json:"count"`
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, generator.MockLLM{}, generator.SchemaFields)

	rec := do(t, srv.Router(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAPIRequiresIdentity(t *testing.T) {
	srv := newTestServer(t, generator.MockLLM{}, generator.SchemaFields)

	for _, token := range []string{"", "wrong"} {
		rec := do(t, srv.Router(), http.MethodGet, "/api/pitches", token, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthenticated", decode[map[string]string](t, rec)["error"])
	}
}

func TestCreateListGetPitch(t *testing.T) {
	srv := newTestServer(t, generator.MockLLM{}, generator.SchemaFields)
	h := srv.Router()

	rec := do(t, h, http.MethodPost, "/api/pitches", "tok-a", ideaJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[pitchJSON](t, rec)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.OwnerID)
	assert.Equal(t, "users/alice/pitches/"+created.ID, created.Path)
	assert.Equal(t, store.StatusGenerated, created.Status)
	assert.NotNil(t, created.CreatedAt)
	assert.Equal(t, "EcoTrack", created.Idea.Title)
	assert.Equal(t, "EcoTrackly", created.GeneratedPitch["startup_name"])
	assert.Equal(t, "EcoTrackly", created.Summary.Title)

	rec = do(t, h, http.MethodGet, "/api/pitches", "tok-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listJSON](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.ID, list.Pitches[0].ID)

	rec = do(t, h, http.MethodGet, "/api/pitches/"+created.ID, "tok-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[pitchJSON](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/api/pitches/"+created.ID, "tok-b", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/pitches", "tok-b", "")
	assert.Equal(t, 0, decode[listJSON](t, rec).Count)
}

func TestLandingPage(t *testing.T) {
	srv := newTestServer(t, generator.MockLLM{}, generator.SchemaSections)
	h := srv.Router()

	rec := do(t, h, http.MethodPost, "/api/pitches", "tok-a", `{"idea_text":"Bakery subscriptions for offices"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[pitchJSON](t, rec)
	assert.Equal(t, "sections", created.Schema)

	rec = do(t, h, http.MethodGet, "/api/pitches/"+created.ID+"/landing", "tok-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>Bakeryly</h1>")

	rec = do(t, h, http.MethodGet, "/api/pitches/missing/landing", "tok-a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePitchErrors(t *testing.T) {
	failing := llmFunc(func(context.Context, generator.Prompt) (string, error) { return "", errors.New("quota") })

	tests := []struct {
		name   string
		kind   generator.SchemaKind
		llm    generator.LLMClient
		body   string
		status int
		errMsg string
	}{
		{name: "malformed body", kind: generator.SchemaFields, llm: generator.MockLLM{}, body: "{", status: http.StatusBadRequest},
		{name: "missing industry", kind: generator.SchemaFields, llm: generator.MockLLM{}, body: `{"title":"x","description":"y"}`, status: http.StatusBadRequest, errMsg: "industry is required"},
		{name: "section generation fails", kind: generator.SchemaSections, llm: failing, body: `{"idea_text":"x"}`, status: http.StatusBadGateway, errMsg: "generation failed, please try again"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.llm, tc.kind)
			rec := do(t, srv.Router(), http.MethodPost, "/api/pitches", "tok-a", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			if tc.errMsg != "" {
				assert.Equal(t, tc.errMsg, decode[map[string]string](t, rec)["error"])
			}
		})
	}
}

func TestCreatePitchFieldFallbackIsSuccess(t *testing.T) {
	failing := llmFunc(func(context.Context, generator.Prompt) (string, error) { return "", errors.New("quota") })
	srv := newTestServer(t, failing, generator.SchemaFields)

	rec := do(t, srv.Router(), http.MethodPost, "/api/pitches", "tok-a", ideaJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[pitchJSON](t, rec)
	assert.True(t, created.UsedFallback)
	assert.Contains(t, generator.TaglinesFor("innovative"), created.GeneratedPitch["tagline"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&generator.ValidationError{Field: "title", Reason: "is required"}, http.StatusBadRequest},
		{auth.ErrUnauthenticated, http.StatusUnauthorized},
		{store.ErrNoOwner, http.StatusUnauthorized},
		{store.ErrNotFound, http.StatusNotFound},
		{&generator.GenerationError{Err: errors.New("x")}, http.StatusBadGateway},
		{&store.RepositoryError{Op: "create", Err: errors.New("x")}, http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.status, statusFor(tc.err), tc.err.Error())
	}
}

func TestStreamPitches(t *testing.T) {
	srv := newTestServer(t, generator.MockLLM{}, generator.SchemaFields)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/pitches/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok-a")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	nextSnapshot := func() listJSON {
		t.Helper()
		var event string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				require.Equal(t, "snapshot", event)
				var list listJSON
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &list))
				return list
			}
		}
	}

	assert.Equal(t, 0, nextSnapshot().Count)

	rec := do(t, srv.Router(), http.MethodPost, "/api/pitches", "tok-a", ideaJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[pitchJSON](t, rec)

	snap := nextSnapshot()
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, created.ID, snap.Pitches[0].ID)
	assert.Equal(t, "EcoTrackly", snap.Pitches[0].GeneratedPitch["startup_name"])
}

func TestStreamPitchesReportsStorageErrors(t *testing.T) {
	srv, db := newTestServerWithDB(t, generator.MockLLM{}, generator.SchemaFields)
	require.NoError(t, store.Close(db))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/pitches/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok-a")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	assert.Equal(t, "error", event)
	assert.JSONEq(t, `{"error":"storage unavailable, please try again"}`, data)
}
