package middleware

import (
	"net/http"
	"time"
)

// RequestTimeout bounds handler execution. The deadline also propagates
// through the request context so downstream calls stop early.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	body := `{"error":"Request timed out","code":"TIMEOUT","retryable":true}`
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, body)
	}
}
