package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forge-backend/internal/database"
	"github.com/forgeline/forge-backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*server, *database.Repository) {
	t.Helper()

	cfg := Config{
		DataDir:        t.TempDir(),
		Port:           "0",
		JWTSecret:      "test-secret-at-least-sixteen-chars",
		AllowedOrigins: []string{"http://localhost:3000"},
		GinMode:        "test",
	}

	s, err := newServer(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s, database.NewRepository(s.db)
}

func authHeader(t *testing.T, s *server) string {
	t.Helper()
	token, err := s.tokens.Generate("test-user")
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(s *server, method, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	s.router.ServeHTTP(w, req)
	return w
}

func seedBuilder(t *testing.T, repo *database.Repository, username string, roles []string) *database.Builder {
	t.Helper()

	now := time.Now()
	b := &database.Builder{
		ID:           uuid.New().String(),
		Username:     username,
		Availability: types.AvailabilityAvailable,
		HoursPerWeek: 20,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.CreateBuilder(context.Background(), b))
	return b
}

func seedVerifiedDelivery(t *testing.T, repo *database.Repository, builderID string, completedDaysAgo int) *database.Delivery {
	t.Helper()

	ctx := context.Background()
	now := time.Now()
	started := now.AddDate(0, 0, -completedDaysAgo-21)
	completed := now.AddDate(0, 0, -completedDaysAgo)

	d := &database.Delivery{
		ID:            uuid.New().String(),
		BuilderID:     builderID,
		Title:         "shipped feature",
		Status:        types.DeliveryVerified,
		StartedAt:     &started,
		CompletedAt:   &completed,
		DeploymentURL: "https://app.example.com",
		RepoURL:       "https://github.com/example/app",
		Stack:         []string{"go", "sqlite"},
		CreatedAt:     started,
		UpdatedAt:     completed,
	}
	require.NoError(t, repo.CreateDelivery(ctx, d))

	verified := true
	require.NoError(t, repo.UpsertVerification(ctx, &database.Verification{
		ID:                  uuid.New().String(),
		DeliveryID:          d.ID,
		DeploymentReachable: &verified,
		RepoExists:          &verified,
		TimelineVerified:    &verified,
		OverallStatus:       types.VerificationVerified,
		LastCheckedAt:       completed,
	}))

	require.NoError(t, repo.CreateEvidence(ctx, &database.Evidence{
		ID:         uuid.New().String(),
		DeliveryID: d.ID,
		Type:       types.EvidenceDeploymentURL,
		URL:        d.DeploymentURL,
		Verified:   true,
		CreatedAt:  completed,
	}))

	return d
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_requests")
}

func TestGetScoreUnknownBuilder(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/builders/"+uuid.New().String()+"/score", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComputeScoreRequiresAuth(t *testing.T) {
	s, repo := newTestServer(t)
	b := seedBuilder(t, repo, "unauthed", []string{"backend"})

	w := doJSON(s, http.MethodPost, "/builders/"+b.ID+"/score", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComputeScoreFlow(t *testing.T) {
	s, repo := newTestServer(t)
	auth := authHeader(t, s)

	b := seedBuilder(t, repo, "prolific", []string{"backend"})
	for i := 0; i < 3; i++ {
		seedVerifiedDelivery(t, repo, b.ID, 10+i*30)
	}

	w := doJSON(s, http.MethodPost, "/builders/"+b.ID+"/score", auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.ComputeScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Greater(t, resp.Score.Score, 0)
	assert.Equal(t, "evidence", resp.Score.Model)

	// Stored score is readable without auth.
	w = doJSON(s, http.MethodGet, "/builders/"+b.ID+"/score", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// An immediate recompute hits the per-builder cooldown.
	w = doJSON(s, http.MethodPost, "/builders/"+b.ID+"/score", auth)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestComputeScoreUnknownBuilder(t *testing.T) {
	s, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(s, http.MethodPost, "/builders/"+uuid.New().String()+"/score", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerificationEndpoint(t *testing.T) {
	s, repo := newTestServer(t)
	auth := authHeader(t, s)

	b := seedBuilder(t, repo, "verifier", []string{"backend"})

	ctx := context.Background()
	now := time.Now()
	started := now.AddDate(0, 0, -30)
	completed := now.AddDate(0, 0, -2)
	d := &database.Delivery{
		ID:            uuid.New().String(),
		BuilderID:     b.ID,
		Title:         "completed work",
		Status:        types.DeliveryCompleted,
		StartedAt:     &started,
		CompletedAt:   &completed,
		DeploymentURL: "https://app.example.com",
		RepoURL:       "https://github.com/example/app",
		CreatedAt:     started,
		UpdatedAt:     completed,
	}
	require.NoError(t, repo.CreateDelivery(ctx, d))

	require.NoError(t, repo.CreateEvidence(ctx, &database.Evidence{
		ID:         uuid.New().String(),
		DeliveryID: d.ID,
		Type:       types.EvidenceDeploymentURL,
		URL:        d.DeploymentURL,
		Verified:   true,
		CreatedAt:  completed,
	}))
	require.NoError(t, repo.CreateEvidence(ctx, &database.Evidence{
		ID:         uuid.New().String(),
		DeliveryID: d.ID,
		Type:       types.EvidenceRepoURL,
		URL:        d.RepoURL,
		Verified:   true,
		CreatedAt:  completed,
	}))

	w := doJSON(s, http.MethodPost, "/deliveries/"+d.ID+"/verification", auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Verification.DeploymentReachable)
	assert.True(t, *resp.Verification.DeploymentReachable)
}

func TestVerificationUnknownDelivery(t *testing.T) {
	s, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(s, http.MethodPost, "/deliveries/"+uuid.New().String()+"/verification", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatchEndpoints(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	owner := seedBuilder(t, repo, "owner", []string{"product"})
	candidate := seedBuilder(t, repo, "candidate", []string{"backend"})
	require.NoError(t, repo.UpdateBuilderScores(ctx, candidate.ID, 600, 70, 60))
	require.NoError(t, repo.UpdateBuilderSkills(ctx, candidate.ID, types.SkillScores{Backend: 80, Execution: 70}))

	project := &database.Project{
		ID:              uuid.New().String(),
		OwnerID:         owner.ID,
		Title:           "weekend tool",
		RequiredSkills:  []string{"backend"},
		RolesNeeded:     []string{"backend"},
		HoursPerWeekMin: 10,
		HoursPerWeekMax: 25,
		TeamSizeTarget:  3,
		TimelineWeeks:   6,
		Category:        "devtools",
		Stage:           "mvp",
		Status:          types.ProjectActive,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, repo.CreateProject(ctx, project))

	w := doJSON(s, http.MethodGet, "/projects/"+project.ID+"/matches", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.MatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, candidate.ID, resp.Matches[0].BuilderID)
	assert.NotEmpty(t, resp.Matches[0].Explanation)
	assert.GreaterOrEqual(t, resp.Matches[0].Acceptance.Percent, 5)
	assert.LessOrEqual(t, resp.Matches[0].Acceptance.Percent, 95)

	// Role matches require the role parameter.
	w = doJSON(s, http.MethodGet, "/projects/"+project.ID+"/role-matches", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(s, http.MethodGet, "/projects/"+project.ID+"/role-matches?role=backend", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMatchesUnknownProject(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/projects/"+uuid.New().String()+"/matches", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaderboardAndLiveStats(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	b := seedBuilder(t, repo, "top-dog", []string{"backend"})
	require.NoError(t, repo.UpdateBuilderScores(ctx, b.ID, 750, 80, 70))

	w := doJSON(s, http.MethodGet, "/builders/top", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "top-dog")

	w = doJSON(s, http.MethodGet, "/stats/live", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"builders":1`)
}

func TestSkillRefreshUnconfigured(t *testing.T) {
	s, repo := newTestServer(t)
	auth := authHeader(t, s)
	b := seedBuilder(t, repo, "skilled", []string{"backend"})

	w := doJSON(s, http.MethodPost, "/builders/"+b.ID+"/skills/refresh", auth)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/admin/ratelimits", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(s, http.MethodGet, "/admin/ratelimits", authHeader(t, s))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRateLimitResets(t *testing.T) {
	s, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(s, http.MethodPost, "/admin/ratelimits/ips/203.0.113.7/reset", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(s, http.MethodPost, "/admin/ratelimits/ips/203.0.113.7/reset", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "203.0.113.7")

	w = doJSON(s, http.MethodPost, "/admin/ratelimits/reset", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "all rate limits reset")
}

func TestComputeScoreDropsCachedMatches(t *testing.T) {
	s, repo := newTestServer(t)

	owner := seedBuilder(t, repo, "owner", []string{"product"})
	candidate := seedBuilder(t, repo, "candidate", []string{"backend"})
	candidate.Skills = types.SkillScores{Backend: 80, Execution: 70}
	require.NoError(t, repo.UpdateBuilderSkills(context.Background(), candidate.ID, candidate.Skills))
	seedVerifiedDelivery(t, repo, candidate.ID, 10)

	project := &database.Project{
		ID:              uuid.New().String(),
		OwnerID:         owner.ID,
		Title:           "needs a backend",
		RequiredSkills:  []string{"backend"},
		RolesNeeded:     []string{"backend"},
		HoursPerWeekMin: 10,
		HoursPerWeekMax: 25,
		TeamSizeTarget:  2,
		TimelineWeeks:   8,
		Category:        "saas",
		Stage:           "mvp",
		Status:          types.ProjectActive,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, repo.CreateProject(context.Background(), project))

	w := doJSON(s, http.MethodGet, "/projects/"+project.ID+"/matches", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Greater(t, s.matchCache.Size(), 0, "match response should be cached")

	w = doJSON(s, http.MethodPost, "/builders/"+candidate.ID+"/score", authHeader(t, s))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, s.matchCache.Size(), "recompute drops cached match responses")
}

func TestSecurityHeadersPresent(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/health", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
