package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/groups/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/groups/{id}", "404"))
	assert.Equal(t, 3.0, got)
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TokenIssued("password")
	m.TokenIssued("password")
	m.TokenIssued("refresh")
	m.AuthFailed("revoked")
	m.Flushed(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("password")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("refresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("revoked")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RevokedTokensFlushed))
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.TokenIssued("google")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `driving_school_tokens_issued_total{grant="google"} 1`))
}
