package web

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/glee/internal/core"
)

// Actor headers set by the authenticating proxy in front of the service.
const (
	headerActorID    = "X-Actor-ID"
	headerActorEmail = "X-Actor-Email"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// actorFromRequest reads and validates the acting user.
func actorFromRequest(r *http.Request) (core.Actor, error) {
	actor := core.Actor{
		ID:    strings.TrimSpace(r.Header.Get(headerActorID)),
		Email: strings.TrimSpace(r.Header.Get(headerActorEmail)),
	}
	if err := actor.Validate(); err != nil {
		return core.Actor{}, err
	}
	return actor, nil
}

// clientIP strips the port from RemoteAddr, which TrustedRealIP has
// already replaced with the forwarded address for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
