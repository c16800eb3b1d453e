package providers

import (
	"barcodedrop/internal/structures"
	"net/http"
	"time"
)

// unroutedEndpoint labels requests for paths the control API does not serve.
// Keeps label cardinality bounded when something walks random URLs.
const unroutedEndpoint = "other"

// statusWriter records the status the handler actually sent. Only the first
// WriteHeader counts, matching what net/http puts on the wire.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware counts and times control API requests. Endpoints are
// labelled "METHOD /route" for registered routes so GET and POST /scans stay
// apart; everything else lands under a single label.
func MetricsMiddleware(metrics MetricsProviderInterface, routes []structures.Route, next http.Handler) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		known[route.Url] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := unroutedEndpoint
		if _, ok := known[r.URL.Path]; ok {
			endpoint = r.Method + " " + r.URL.Path
		}
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, time.Since(start))
	})
}
