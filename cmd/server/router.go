package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/go-core/httpmw"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/screener/internal/triageapi"
)

const (
	healthyPath = "/-/healthy"
	readyPath   = "/-/ready"
	// a stateless turn carries the whole transcript in its state token
	maxBody = 1 << 20
)

// newHandler builds the public listener's router and middleware chain.
// Wrappers applied later sit further out and see the request first.
func newHandler(api *triageapi.API, healthz, readyz http.HandlerFunc, metricsMW func(http.Handler) http.Handler, L log.Logger, trustedHops int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Compress(5, "application/json"))
	// renames the logger field and span to the chi route pattern
	r.Use(httpmw.AnnotateHTTPRoute)
	r.Use(dbStats)
	r.Use(httpmw.AccessLog())
	r.Use(httpmw.MaxBody(maxBody))

	r.Get(healthyPath, healthz)
	r.Get(readyPath, readyz)
	api.RegisterRoutes(r)

	var h http.Handler = r
	h = httpmw.WithLogger(L)(h)
	h = httpmw.TraceResponseHeaders("X-Trace-Id", "X-Span-Id")(h)
	h = otelhttp.NewHandler(h, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != healthyPath && r.URL.Path != readyPath
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithPublicEndpointFn(func(*http.Request) bool { return true }),
	)
	h = metricsMW(h)
	h = httpmw.ClientIPWithOptions(httpmw.ClientIPOptions{TrustedHops: trustedHops})(h)
	h = httpmw.RequestID("X-Request-Id")(h)
	// outermost after headers so panics anywhere below become 500s
	h = httpmw.Recover(L, nil)(h)
	h = httpmw.SecurityHeaders(h)
	return h
}
