package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/internal/audit"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
)

// ActorFromRequest assembles the audit actor for the authenticated request.
// DelegatedFrom stays nil here; services fill it when a delegation grants
// the authority being exercised.
func ActorFromRequest(r *http.Request) (audit.Actor, error) {
	userID := UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return audit.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return audit.Actor{
		UserID:    userID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}, nil
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
