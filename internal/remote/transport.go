package remote

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Logf receives debug/warn lines from the transport layer. A nil Logf
// silences it.
type Logf func(format string, v ...any)

// defaultBackoff defines the exponential backoff settings for retried
// requests.
var defaultBackoff = ExponentialBackoff{
	InitialInterval: 1 * time.Second,
	MaxInterval:     30 * time.Second,
	Multiplier:      2.0,
}

// BackoffStrategy defines retry delay behavior.
type BackoffStrategy interface {
	Duration(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func (b *ExponentialBackoff) Duration(attempt int) time.Duration {
	if attempt == 0 {
		return 0
	}
	delay := float64(b.InitialInterval) * math.Pow(b.Multiplier, float64(attempt-1))
	if delay > float64(b.MaxInterval) {
		return b.MaxInterval
	}
	return time.Duration(delay)
}

// shouldRetryStatus determines if a response status code should trigger a retry.
func shouldRetryStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout ||
		(statusCode >= 500 && statusCode < 600)
}

// isRetryable determines if an error or response should trigger a retry.
func isRetryable(err error, resp *http.Response) bool {
	if err != nil {
		errStr := err.Error()
		return strings.Contains(errStr, "connection refused") ||
			strings.Contains(errStr, "connection reset") ||
			strings.Contains(errStr, "broken pipe")
	}
	return shouldRetryStatus(resp.StatusCode)
}

// cloneRequest copies an HTTP request, including its body, so a retry can
// resend it.
func cloneRequest(req *http.Request) *http.Request {
	r := req.Clone(req.Context())
	if req.Body != nil && req.Body != http.NoBody {
		body, _ := io.ReadAll(req.Body)
		req.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		req.Body = io.NopCloser(strings.NewReader(string(body)))
	}
	return r
}

// retryableRoundTripper wraps a RoundTripper with transparent retries on
// transient failures.
type retryableRoundTripper struct {
	underlying http.RoundTripper
	maxRetries int
	backoff    BackoffStrategy
	logf       Logf
}

// NewRetryableTransport wraps base with retry logic. A nil base uses
// http.DefaultTransport.
func NewRetryableTransport(base http.RoundTripper, maxRetries int, logf Logf) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryableRoundTripper{
		underlying: base,
		maxRetries: maxRetries,
		backoff:    &defaultBackoff,
		logf:       logf,
	}
}

func (t *retryableRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			wait := t.backoff.Duration(attempt)
			if t.logf != nil {
				t.logf("[HTTP RETRY] Attempt %d/%d for %s (waiting %v)", attempt, t.maxRetries, req.URL, wait)
			}

			select {
			case <-time.After(wait):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}

		reqClone := cloneRequest(req)
		resp, err := t.underlying.RoundTrip(reqClone)

		if err == nil && !shouldRetryStatus(resp.StatusCode) {
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}

		if err != nil {
			lastErr = err
		}

		if !isRetryable(err, resp) {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries (%d) exhausted", t.maxRetries)
}

// loggingRoundTripper logs each request/response through logf.
type loggingRoundTripper struct {
	base http.RoundTripper
	logf Logf
}

// NewLoggingTransport wraps base so every HTTP exchange is logged through
// logf. A nil logf returns base unchanged.
func NewLoggingTransport(base http.RoundTripper, logf Logf) http.RoundTripper {
	if logf == nil {
		return base
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingRoundTripper{base: base, logf: logf}
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	l.logf("%s %s", req.Method, req.URL)
	start := time.Now()

	resp, err := l.base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		l.logf("%s %s failed: %v (took %v)", req.Method, req.URL, err, elapsed)
		return nil, err
	}

	l.logf("%s %s -> %d (took %v)", req.Method, req.URL, resp.StatusCode, elapsed)
	return resp, nil
}
