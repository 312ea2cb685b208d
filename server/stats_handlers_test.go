package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"visitbadge/pkg/config"
)

func TestTagStatsUnknownTagReturnsZero(t *testing.T) {
	_, r := newTestServer(t, config.ModeIPHash, 10)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/stats/tag?tag=never-seen", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Tag        string `json:"tag"`
		VisitCount int64  `json:"visit_count"`
		QueriedAt  int64  `json:"queried_at"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "never-seen", body.Tag)
	require.Zero(t, body.VisitCount)
	require.NotZero(t, body.QueriedAt)
}

func TestTagStatsRequiresTag(t *testing.T) {
	_, r := newTestServer(t, config.ModeIPHash, 10)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/stats/tag", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTagStatsReflectsVisits(t *testing.T) {
	srv, r := newTestServer(t, config.ModeIPHash, 10)

	base := time.Unix(1_700_000_000, 0)
	_, err := srv.coordinator.RegisterVisit("client-a", "demo", base)
	require.NoError(t, err)
	_, err = srv.coordinator.RegisterVisit("client-b", "demo", base)
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/stats/tag?tag=demo", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		VisitCount int64 `json:"visit_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.EqualValues(t, 2, body.VisitCount)
}

func TestSystemStats(t *testing.T) {
	srv, r := newTestServer(t, config.ModeIPHash, 10)

	now := time.Now()
	_, err := srv.coordinator.RegisterVisit("client-a", "alpha", now)
	require.NoError(t, err)
	_, err = srv.coordinator.RegisterVisit("client-a", "beta", now)
	require.NoError(t, err)
	_, err = srv.coordinator.RegisterVisit("client-b", "alpha", now)
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		TotalTrackedTags int64 `json:"total_tracked_tags"`
		TotalVisits      int64 `json:"total_visits"`
		NewBadgesToday   int64 `json:"new_badges_today"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.EqualValues(t, 2, body.TotalTrackedTags)
	require.EqualValues(t, 3, body.TotalVisits)
	require.EqualValues(t, 2, body.NewBadgesToday)
}

func TestInfoReportsConfiguredPolicy(t *testing.T) {
	_, r := newTestServer(t, config.ModeIPHash, 10)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/info", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Version              string `json:"version"`
		Environment          string `json:"environment"`
		IdentityMode         string `json:"identity_mode"`
		RateLimitWindowHours int    `json:"rate_limit_window_hours"`
		RetentionDays        int    `json:"cleanup_retention_days"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "dev", body.Version)
	require.Equal(t, "ip", body.IdentityMode)
	require.Equal(t, 48, body.RateLimitWindowHours)
	require.Equal(t, 7, body.RetentionDays)
}

func TestHealth(t *testing.T) {
	_, r := newTestServer(t, config.ModeIPHash, 10)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"status":"healthy"}`, resp.Body.String())
}
