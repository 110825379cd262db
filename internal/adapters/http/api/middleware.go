package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/valuematrix/pkg/logger"
	"github.com/okian/valuematrix/pkg/metrics"
)

// MetricsMiddleware records request count and latency under endpoint, counts
// failed requests per error kind and logs server errors.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(elapsed.Milliseconds()))

		if rec.status < http.StatusBadRequest {
			return
		}
		metrics.RecordErrorByComponent("http_"+endpoint, errorKind(rec.status))
		if rec.status >= http.StatusInternalServerError {
			logger.Get().Error(context.WithoutCancel(r.Context()), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", rec.status),
				logger.Duration("elapsed", elapsed))
		}
	}
}

// errorKind buckets a failure status into the error metric label.
func errorKind(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "invalid_decision"
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

// statusRecorder remembers the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
