package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t      *testing.T
	app    *App
	apiKey string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("RATE_LIMIT_BURST", "1000")
	t.Setenv("RATE_LIMIT_RPS", "1000")

	app := NewApp(store.NewInMemoryStores(), nil, domain.DefaultClassifierConfig(), zap.NewNop())
	ts := &testServer{t: t, app: app}

	rec := ts.do(http.MethodPost, "/v1/schools", map[string]string{"name": "Test Academy"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		APIKey string `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	ts.apiKey = created.APIKey
	return ts
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ts.apiKey)
	}
	rec := httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func practicePath(name, suffix string) string {
	return "/v1/practices/" + url.PathEscape(name) + suffix
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	rec = ts.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	m := decode[map[string]any](t, rec)
	assert.Contains(t, m, "request_count")
	assert.Contains(t, m, "build")

	rec = ts.do(http.MethodGet, "/metrics/prometheus", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pyramid_http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	ts.apiKey = ""

	rec := ts.do(http.MethodGet, "/v1/pyramid", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.apiKey = "pk_not_a_real_key"
	rec = ts.do(http.MethodGet, "/v1/pyramid", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClassifyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/v1/classify", map[string]any{
		"practice_name": "Mindfulness Meditation",
		"observations": []map[string]any{
			{"effect_magnitude": 0.53, "sample_size": 209, "significance": 0.001, "quality_weight": 1.0},
			{"effect_magnitude": 0.38, "sample_size": 142, "significance": 0.02, "quality_rating": "moderate"},
		},
		"previous_tier": "EDGE",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		PracticeName  string                 `json:"practice_name"`
		StrengthScore float64                `json:"strength_score"`
		Tier          string                 `json:"tier"`
		TierReason    string                 `json:"tier_reason"`
		Transition    *domain.TierTransition `json:"transition"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Mindfulness Meditation", res.PracticeName)
	assert.InDelta(t, 1.2976346201131046, res.StrengthScore, 1e-9)
	assert.Equal(t, "MIDDLE", res.Tier)
	assert.Equal(t, "1.20 <= strength < 1.50", res.TierReason)
	require.NotNil(t, res.Transition)
	assert.Equal(t, domain.DirectionPromote, res.Transition.Direction)
}

func TestClassifyEndpoint_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "negative sample size",
			body: map[string]any{
				"practice_name": "Reiki",
				"observations": []map[string]any{
					{"effect_magnitude": 0.1, "sample_size": 10, "significance": 0.5, "quality_weight": 0.4},
					{"effect_magnitude": 0.1, "sample_size": -5, "significance": 0.5, "quality_weight": 0.4},
				},
			},
			want: "observation 1: sample_size",
		},
		{
			name: "missing quality",
			body: map[string]any{
				"practice_name": "Reiki",
				"observations":  []map[string]any{{"effect_magnitude": 0.1, "sample_size": 10, "significance": 0.5}},
			},
			want: "quality_weight",
		},
		{
			name: "unknown rating",
			body: map[string]any{
				"practice_name": "Reiki",
				"observations":  []map[string]any{{"effect_magnitude": 0.1, "sample_size": 10, "significance": 0.5, "quality_rating": "stellar"}},
			},
			want: "quality_rating",
		},
		{
			name: "effect magnitude out of range",
			body: map[string]any{
				"practice_name": "Reiki",
				"observations": []map[string]any{
					{"effect_magnitude": 1e308, "sample_size": 100, "significance": 0.01, "quality_weight": 1.0},
					{"effect_magnitude": -1e308, "sample_size": 100, "significance": 0.01, "quality_weight": 1.0},
				},
			},
			want: "observation 0: effect_magnitude",
		},
		{
			name: "unknown previous tier",
			body: map[string]any{"practice_name": "Reiki", "previous_tier": "SUMMIT"},
			want: "invalid tier",
		},
		{
			name: "missing name",
			body: map[string]any{"observations": []map[string]any{}},
			want: "practice name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/v1/classify", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.want)
		})
	}
}

func TestPracticeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	name := "Breathwork"

	rec := ts.do(http.MethodPost, "/v1/practices", map[string]any{"name": name, "description": "Box breathing"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/v1/practices", map[string]any{"name": name})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, practicePath(name, "/observations"), map[string]any{
		"effect_magnitude": 0.42, "sample_size": 89, "significance": 0.03, "quality_weight": 0.7,
		"study_type": "randomized_controlled_trial", "citation": "Zaccaro 2018", "year": 2018,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, practicePath(name, "/observations"), map[string]any{
		"effect_magnitude": 0.45, "sample_size": 300, "significance": 0.001, "quality_rating": "HIGH",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var recorded struct {
		Classification struct {
			Tier string `json:"tier"`
		} `json:"classification"`
		Transition *domain.TierTransition `json:"transition"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recorded))
	assert.Equal(t, "FOUNDATION", recorded.Classification.Tier)
	require.NotNil(t, recorded.Transition)
	assert.Equal(t, domain.DirectionPromote, recorded.Transition.Direction)

	rec = ts.do(http.MethodGet, practicePath(name, ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FOUNDATION", decode[map[string]any](t, rec)["tier"])

	rec = ts.do(http.MethodGet, practicePath(name, "/observations"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["count"])

	rec = ts.do(http.MethodGet, practicePath(name, "/classification"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1.7748682994756815, decode[map[string]any](t, rec)["strength_score"], 1e-9)

	rec = ts.do(http.MethodGet, practicePath(name, "/summary"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["num_studies"])

	rec = ts.do(http.MethodGet, practicePath(name, "/transitions"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = ts.do(http.MethodGet, practicePath(name, "/transitions?limit=-1"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, practicePath(name, "/similar"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordObservation_AutoCreatesPracticeWithSpaces(t *testing.T) {
	ts := newTestServer(t)
	name := "Cognitive Behavioral Therapy"

	rec := ts.do(http.MethodPost, practicePath(name, "/observations"), map[string]any{
		"effect_magnitude": 0.75, "sample_size": 2500, "significance": 0.0001, "quality_weight": 1.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/v1/practices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Practices []domain.Practice `json:"practices"`
	}](t, rec)
	require.Len(t, list.Practices, 1)
	assert.Equal(t, name, list.Practices[0].Name)
}

func TestPracticeNames_DecodedOnce(t *testing.T) {
	for _, name := range []string{"100% Pure", "a%41", "Yin/Yang Balance"} {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(http.MethodPost, practicePath(name, "/observations"), map[string]any{
				"effect_magnitude": 0.3, "sample_size": 120, "significance": 0.02, "quality_weight": 0.7,
			})
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			rec = ts.do(http.MethodGet, practicePath(name, ""), nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, name, decode[map[string]any](t, rec)["name"])
		})
	}
}

func TestRecordObservation_Invalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, practicePath("Reiki", "/observations"), map[string]any{
		"effect_magnitude": 0.1, "sample_size": 10, "significance": 1.5, "quality_weight": 0.4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "significance")

	rec = ts.do(http.MethodGet, practicePath("Reiki", ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, practicePath("Reiki", "/observations"), map[string]any{
		"effect_magnitude": 1e308, "sample_size": 100, "significance": 0.01, "quality_weight": 1.0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "effect_magnitude")
}

func TestPyramidAndCascade(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/v1/practices", map[string]any{
		"name": "Crystal Healing", "tier": "foundation",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/v1/pyramid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pyramid struct {
		Layers map[string][]string `json:"layers"`
		Total  int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pyramid))
	assert.Equal(t, []string{"Crystal Healing"}, pyramid.Layers["FOUNDATION"])
	assert.Equal(t, 1, pyramid.Total)

	rec = ts.do(http.MethodPost, "/v1/cascades", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode[domain.CascadeRun](t, rec)
	require.Len(t, run.Demotions, 1)
	assert.Equal(t, domain.TierEdge, run.Demotions[0].ToTier)

	rec = ts.do(http.MethodGet, "/v1/pyramid", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pyramid))
	assert.Equal(t, []string{"Crystal Healing"}, pyramid.Layers["EDGE"])
	assert.Empty(t, pyramid.Layers["FOUNDATION"])

	rec = ts.do(http.MethodGet, "/v1/cascades", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])
}

func TestCreatePractice_Invalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/v1/practices", map[string]any{"name": "Yoga", "tier": "SUMMIT"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/practices", map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/practices", map[string]any{"name": "Yoga", "contradicts": []string{"Yoga"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
