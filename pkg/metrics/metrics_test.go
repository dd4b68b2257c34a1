package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", StatusCategory(201))
	assert.Equal(t, "3xx", StatusCategory(302))
	assert.Equal(t, "4xx", StatusCategory(404))
	assert.Equal(t, "5xx", StatusCategory(503))
	assert.Equal(t, "", StatusCategory(101))
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := NewHTTPMetrics("metrics-test")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	got := testutil.ToFloat64(RequestCounter.WithLabelValues("metrics-test", http.MethodGet, "/items/{id}", "418"))
	assert.Equal(t, float64(2), got)
}
