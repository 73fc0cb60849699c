package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipgate/clipgate/internal/application/service"
	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/pkg/errors"
)

// stubFetchService scripts the application service per test.
type stubFetchService struct {
	fetchResult *service.FetchResult
	fetchErr    error
	stats       *models.UserStats
	resolved    string
}

func (s *stubFetchService) Describe(ctx context.Context, userID int64, rawURL string) (*service.Preview, error) {
	return &service.Preview{Token: "tok", Meta: &models.MediaMeta{Title: "clip"}}, nil
}

func (s *stubFetchService) Fetch(ctx context.Context, req service.FetchRequest) (*service.FetchResult, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.fetchResult, nil
}

func (s *stubFetchService) FetchPair(ctx context.Context, userID int64, rawURL string) (*service.PairResult, error) {
	return &service.PairResult{Video: s.fetchResult, Audio: s.fetchResult}, nil
}

func (s *stubFetchService) ConfirmDelivery(ctx context.Context, conf service.DeliveryConfirmation) error {
	return nil
}

func (s *stubFetchService) ResolveToken(ctx context.Context, token string) (string, error) {
	return s.resolved, nil
}

func (s *stubFetchService) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	return s.stats, nil
}

func testRouter(stub *stubFetchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewFetchHandler(stub)
	engine.POST("/v1/requests", h.Fetch)
	engine.GET("/v1/tokens/:token", h.ResolveToken)
	engine.GET("/v1/users/:id/stats", h.UserStats)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestFetchEndpointReturnsResult(t *testing.T) {
	stub := &stubFetchService{fetchResult: &service.FetchResult{
		CacheHit: true,
		Handle:   &models.ContentHandle{FileID: "file-1"},
		Meta:     &models.MediaMeta{Title: "clip"},
	}}
	engine := testRouter(stub)

	w := postJSON(t, engine, "/v1/requests", service.FetchRequest{
		UserID: 1, URL: "https://www.tiktok.com/@u/video/1", Kind: "video",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var res service.FetchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.CacheHit)
	assert.Equal(t, "file-1", res.Handle.FileID)
}

func TestFetchEndpointMapsBackpressure(t *testing.T) {
	stub := &stubFetchService{fetchErr: errors.ErrRateLimited(4 * time.Second)}
	engine := testRouter(stub)

	w := postJSON(t, engine, "/v1/requests", service.FetchRequest{
		UserID: 1, URL: "https://www.tiktok.com/@u/video/1", Kind: "video",
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "4", w.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body["error"])
}

func TestFetchEndpointMapsConflict(t *testing.T) {
	stub := &stubFetchService{fetchErr: errors.ErrDuplicateInFlight("key")}
	engine := testRouter(stub)

	w := postJSON(t, engine, "/v1/requests", service.FetchRequest{
		UserID: 1, URL: "https://www.tiktok.com/@u/video/1", Kind: "video",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestFetchEndpointRejectsBadBody(t *testing.T) {
	engine := testRouter(&stubFetchService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/requests", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveTokenEndpoint(t *testing.T) {
	engine := testRouter(&stubFetchService{resolved: "https://www.tiktok.com/@u/video/1"})

	req := httptest.NewRequest(http.MethodGet, "/v1/tokens/abc", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://www.tiktok.com/@u/video/1", body["url"])
}

func TestResolveUnknownTokenIs404(t *testing.T) {
	engine := testRouter(&stubFetchService{resolved: ""})

	req := httptest.NewRequest(http.MethodGet, "/v1/tokens/abc", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserStatsEndpoint(t *testing.T) {
	engine := testRouter(&stubFetchService{stats: &models.UserStats{Downloads: 5, Events: 9}})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/42/stats", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var stats models.UserStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(5), stats.Downloads)
}

func TestUserStatsRejectsBadID(t *testing.T) {
	engine := testRouter(&stubFetchService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/notanumber/stats", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
