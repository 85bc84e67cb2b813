package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pfa/internal/logger"
)

// TokenHolder is the part of the session the transport reads and clears.
type TokenHolder interface {
	Token() string
	Expire() bool
}

type publicKey struct{}

// public marks a request that must go out without a bearer token and whose
// 401 means bad credentials rather than an expired session.
func public(ctx context.Context) context.Context {
	return context.WithValue(ctx, publicKey{}, true)
}

func isPublic(req *http.Request) bool {
	v, _ := req.Context().Value(publicKey{}).(bool)
	return v
}

// authTransport is the single place that attaches the bearer token and
// reacts to 401 responses. The session is cleared before the response is
// handed back, so no caller can observe a 401 while still signed in.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenHolder
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	open := isPublic(req)
	if !open {
		if token := t.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	log := logger.Get()
	if err != nil {
		log.Debugw("api request failed",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"error", err.Error(),
		)
		return nil, err
	}

	log.Debugw("api request",
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode == http.StatusUnauthorized && !open {
		if t.tokens.Expire() {
			log.Infow("session expired by api", "request_id", requestID, "path", req.URL.Path)
		}
	}
	return resp, nil
}
