package middleware

import (
	"net/http"
	"strings"

	"github.com/pmdelrosario/merkado-backend/api/responses"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

const sessionKeyHeader = "X-Session-Key"

const maxSessionKeyLength = 128

// Session requires the client-generated session key header and threads it
// into the request context. The key is an opaque token; the server never
// issues one itself.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(sessionKeyHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Session-Key header required"))
				return
			}
			if len(key) > maxSessionKeyLength {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session key too long"))
				return
			}

			ctx := WithSessionKey(r.Context(), key)
			if logg != nil {
				ctx = logg.WithSessionKey(ctx, key)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
