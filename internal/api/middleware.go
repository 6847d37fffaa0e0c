package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"meeting-point-service/internal/platform/metrics"
	"meeting-point-service/internal/platform/obs"
)

// statusWriter captures the final HTTP status code and number of bytes written.
// This helps distinguish "handler returned 200" from "client received a response".
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Record implicit 200 responses when handlers write without calling WriteHeader.
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// loggingMiddleware tags every request with an id, logs end-to-end duration
// and response size, and feeds the HTTP metrics. The id rides on the context
// so adapter logs from the same request correlate.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), obs.RequestIDKey, reqID)

		sw := &statusWriter{
			ResponseWriter: w,
			status:         0,
		}

		next.ServeHTTP(sw, r.WithContext(ctx))

		if sw.status == 0 {
			// Nothing was written; net/http sends an implicit 200.
			sw.status = http.StatusOK
		}

		duration := time.Since(start)

		// This API has no parameterized routes, so the raw path is a bounded
		// metric label; unknown paths fold into one value.
		metricPath := r.URL.Path
		if sw.status == http.StatusNotFound {
			metricPath = "unmatched"
		}
		metrics.ObserveHTTPRequest(r.Method, metricPath, sw.status, duration)

		log.Printf(
			"req_id=%s method=%s path=%s status=%d bytes=%d dur=%dms",
			reqID, r.Method, r.URL.RequestURI(), sw.status, sw.bytes, duration.Milliseconds(),
		)
	})
}
