package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/domain"
	dashboardhandlers "github.com/superform-xyz/supervaults/internal/modules/dashboard/handlers"
	systemhandlers "github.com/superform-xyz/supervaults/internal/modules/system/handlers"
)

type stubDashboard struct{}

func (stubDashboard) BuildDashboard(ctx context.Context) ([]domain.RenderRecord, error) {
	return nil, nil
}

type stubLister struct{}

func (stubLister) ListVaults(ctx context.Context) ([]domain.VaultSummary, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.Nop()
	return New(Config{
		Log:           log,
		Port:          0,
		RenderTimeout: time.Minute,
		DashboardHandler: dashboardhandlers.NewHandler(
			stubDashboard{}, stubLister{}, chains.New(chains.Overrides{}), time.Minute, log,
		),
		SystemHandler: systemhandlers.NewHandler("test", log),
	})
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.Contains(t, rec.Body.String(), "supervaults")
}

func TestEmbeddedPages(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/", "/integrations"} {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
		assert.Contains(t, rec.Body.String(), "SuperVaults", path)
	}
}

func TestStaticAssetsServedWithMIMETypes(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestAPISupervaultsRouted(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/supervaults", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sections"`)
}
