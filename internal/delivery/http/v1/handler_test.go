package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"inclusive-matching-api/internal/delivery/http/middleware"
	v1 "inclusive-matching-api/internal/delivery/http/v1"
	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/internal/usecase"
	"inclusive-matching-api/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProfileRepo struct {
	mu       sync.Mutex
	nextID   int64
	profiles map[int64]domain.Profile
}

func newMemoryProfileRepo() *memoryProfileRepo {
	return &memoryProfileRepo{nextID: 1, profiles: map[int64]domain.Profile{}}
}

func (r *memoryProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	r.profiles[p.ID] = *p
	return nil
}

func (r *memoryProfileRepo) List(_ context.Context) ([]domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryProfileRepo) GetByID(_ context.Context, id int64) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memoryProfileRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

func (r *memoryProfileRepo) ListCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.Profile, error) {
	all, _ := r.List(ctx)
	out := []domain.Profile{}
	for _, p := range all {
		if p.ID == f.ExcludeID || p.ChildAge < f.MinAge || p.ChildAge > f.MaxAge {
			continue
		}
		if f.City != "" && p.City != f.City {
			continue
		}
		out = append(out, p)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// stubGateway answers with one result per candidate it was shown.
type stubGateway struct {
	mu      sync.Mutex
	calls   int
	lastIDs []int64
	reply   string
	err     error
}

func (g *stubGateway) Complete(_ context.Context, _, user string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastIDs = candidateIDsFromPrompt(user)
	if g.err != nil || g.reply != "" {
		return g.reply, g.err
	}

	results := make([]map[string]any, 0, len(g.lastIDs))
	for i, id := range g.lastIDs {
		results = append(results, map[string]any{
			"candidate_id":  id,
			"overall_score": 90 - i,
			"rationale":     []string{"Close", "in", "age"},
		})
	}
	b, _ := json.Marshal(map[string]any{"target_id": 0, "mode": "similarity", "results": results})
	return string(b), nil
}

func candidateIDsFromPrompt(user string) []int64 {
	const marker = "CANDIDATE_PROFILES:\n"
	start := strings.Index(user, marker)
	if start < 0 {
		return nil
	}
	line := user[start+len(marker):]
	line = line[:strings.Index(line, "\n")]

	var payloads []domain.CandidatePayload
	if err := json.Unmarshal([]byte(line), &payloads); err != nil {
		return nil
	}
	ids := make([]int64, 0, len(payloads))
	for _, p := range payloads {
		ids = append(ids, p.ID)
	}
	return ids
}

func setupRouter(t *testing.T, gw domain.LLMGateway, rateLimit int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemoryProfileRepo()
	validate := validation.New()
	return v1.NewRouter(v1.RouterDeps{
		ProfileUC:       usecase.NewProfileUsecase(repo, validate),
		MatchUC:         usecase.NewMatchUsecase(repo, gw, validate, usecase.MatchConfig{Language: "en"}, nil),
		HealthUC:        usecase.NewHealthUsecase(nil),
		RateStore:       middleware.NewMemoryRateStore(),
		MatchRateLimit:  rateLimit,
		MatchRateWindow: time.Minute,
	})
}

func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createProfile(t *testing.T, r http.Handler, body map[string]any) domain.Profile {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/profiles/", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p domain.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestRootRoute(t *testing.T) {
	r := setupRouter(t, &stubGateway{}, 0)

	w := doRequest(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Inclusive Matching API is running!"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthRoute(t *testing.T) {
	r := setupRouter(t, &stubGateway{}, 0)

	w := doRequest(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestHealthRouteDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := v1.NewRouter(v1.RouterDeps{
		HealthUC: usecase.NewHealthUsecase(map[string]usecase.HealthCheck{
			"database": func(context.Context) error { return errors.New("connection refused") },
		}),
	})

	w := doRequest(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Error   map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Dependency unavailable", body.Message)
	assert.Equal(t, map[string]string{"status": "degraded", "database": "down"}, body.Error)
}

func TestProfileLifecycle(t *testing.T) {
	r := setupRouter(t, &stubGateway{}, 0)

	created := createProfile(t, r, map[string]any{
		"child_age": 9,
		"city":      "Wonderland",
		"strengths": "reading, kindness",
	})
	assert.Equal(t, int64(1), created.ID)
	require.NotNil(t, created.Strengths)
	assert.Equal(t, "reading, kindness", *created.Strengths)
	assert.Nil(t, created.Needs)

	second := createProfile(t, r, map[string]any{"child_age": 11, "city": "Dreamland"})
	assert.NotEqual(t, created.ID, second.ID)

	t.Run("Get echoes the created profile", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/profiles/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t,
			`{"id":1,"child_age":9,"city":"Wonderland","strengths":"reading, kindness","needs":null,"notes":null}`,
			w.Body.String())
	})

	t.Run("List works with and without trailing slash", func(t *testing.T) {
		for _, path := range []string{"/profiles/", "/profiles"} {
			w := doRequest(r, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code, path)
			var list []domain.Profile
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
			assert.Len(t, list, 2)
		}
	})

	t.Run("Delete then get and delete again are 404", func(t *testing.T) {
		w := doRequest(r, http.MethodDelete, "/profiles/1", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())

		w = doRequest(r, http.MethodGet, "/profiles/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Profile not found")

		w = doRequest(r, http.MethodDelete, "/profiles/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateProfileRejectsInvalidBodies(t *testing.T) {
	r := setupRouter(t, &stubGateway{}, 0)

	cases := []struct {
		name string
		body any
		want string
	}{
		{"Missing child_age", map[string]any{"city": "Wonderland"}, "child_age: field required"},
		{"Missing city", map[string]any{"child_age": 5}, "city: field required"},
		{"Wrong type", map[string]any{"child_age": "five", "city": "Wonderland"}, "child_age"},
		{"Not an object", []int{1, 2}, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/profiles/", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestProfileRoutesRejectMalformedIDs(t *testing.T) {
	r := setupRouter(t, &stubGateway{}, 0)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := doRequest(r, method, "/profiles/abc", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, method)
	}
}

func TestMatchEndToEnd(t *testing.T) {
	gw := &stubGateway{}
	r := setupRouter(t, gw, 0)

	a := createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})
	b := createProfile(t, r, map[string]any{"child_age": 12, "city": "Wonderland"})
	c := createProfile(t, r, map[string]any{"child_age": 20, "city": "Wonderland"})

	w := doRequest(r, http.MethodPost, "/ai/match?target_id=1&same_city=true&mode=similarity", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, 1, gw.calls)
	assert.Contains(t, gw.lastIDs, b.ID)
	assert.NotContains(t, gw.lastIDs, c.ID)
	assert.NotContains(t, gw.lastIDs, a.ID)

	var result struct {
		TargetID int64            `json:"target_id"`
		Mode     string           `json:"mode"`
		Results  []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, a.ID, result.TargetID)
	assert.Equal(t, "similarity", result.Mode)
	require.Len(t, result.Results, 1)
	assert.EqualValues(t, b.ID, result.Results[0]["candidate_id"])
	assert.Equal(t, "Close in age", result.Results[0]["rationale"])
}

func TestMatchDefaultsAndEmptyPool(t *testing.T) {
	gw := &stubGateway{}
	r := setupRouter(t, gw, 0)

	createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})
	createProfile(t, r, map[string]any{"child_age": 10, "city": "Dreamland"})

	w := doRequest(r, http.MethodPost, "/ai/match?target_id=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"target_id":1,"mode":"complementarity","results":[]}`, w.Body.String())
	assert.Zero(t, gw.calls, "same_city defaults to true so nobody is left to rank")
}

func TestMatchErrors(t *testing.T) {
	t.Run("Unknown target is 404", func(t *testing.T) {
		r := setupRouter(t, &stubGateway{}, 0)
		w := doRequest(r, http.MethodPost, "/ai/match?target_id=42", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Target profile not found")
	})

	t.Run("Invalid parameters are 422", func(t *testing.T) {
		r := setupRouter(t, &stubGateway{}, 0)
		for _, query := range []string{
			"",
			"target_id=1&top_k=0",
			"target_id=1&top_k=21",
			"target_id=1&max_candidates=0",
			"target_id=1&max_candidates=201",
			"target_id=1&mode=friendship",
			"target_id=one",
			"target_id=1&same_city=maybe",
		} {
			w := doRequest(r, http.MethodPost, "/ai/match?"+query, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, query)
		}
	})

	t.Run("Unparseable LLM output is 502", func(t *testing.T) {
		r := setupRouter(t, &stubGateway{reply: "not json"}, 0)
		createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})
		createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})

		w := doRequest(r, http.MethodPost, "/ai/match?target_id=1", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "LLM returned invalid JSON")
	})

	t.Run("Wrong-shape LLM output is 502", func(t *testing.T) {
		r := setupRouter(t, &stubGateway{reply: `{"results":"none"}`}, 0)
		createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})
		createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})

		w := doRequest(r, http.MethodPost, "/ai/match?target_id=1", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "Matcher returned invalid structure")
	})

	t.Run("Gateway failure is 502", func(t *testing.T) {
		r := setupRouter(t, &stubGateway{err: domain.ErrLLMNotConfigured}, 0)
		createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})
		createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})

		w := doRequest(r, http.MethodPost, "/ai/match?target_id=1", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "LLM call failed")
	})
}

func TestMatchRateLimited(t *testing.T) {
	r := setupRouter(t, &stubGateway{}, 2)
	createProfile(t, r, map[string]any{"child_age": 10, "city": "Wonderland"})

	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodPost, "/ai/match?target_id=1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := doRequest(r, http.MethodPost, "/ai/match?target_id=1", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")

	// CRUD is not limited
	w = doRequest(r, http.MethodGet, "/profiles/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	r := setupRouter(t, &stubGateway{}, 0)
	w := doRequest(r, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
