package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/token"
)

type RevocationChecker interface {
	IsRevoked(c context.Context, tokenID string) (bool, error)
}

// Auth verifies the bearer token and attaches it to the request context. Tokens whose
// id is known to the revocation checker are rejected; revocations is optional.
func Auth(secret string, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Auth")
			defer span.End()

			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "middleware Auth").
				Str(log.KeyProcess, "reading authorization header").
				Logger()

			authorization := r.Header.Get(inHttp.HeaderAuthorization)
			scheme, raw, found := strings.Cut(authorization, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || raw == "" {
				err := inErrors.ErrEmptyAuth
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
				return
			}

			logger = logger.With().Str(log.KeyProcess, "verifying token").Logger()
			c = logger.WithContext(c)
			jwtToken, err := token.Verify(c, secret, raw)
			if err != nil {
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid)
				return
			}
			c = token.AttachJwtToken(c, jwtToken)

			if revocations != nil {
				logger = logger.With().Str(log.KeyProcess, "checking token revocation").Logger()
				claims, err := token.ClaimsFromContext(c)
				if err != nil {
					otel.RecordError(err, span)
					logger.Error().Err(err).Msg(err.Error())
					inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid)
					return
				}
				revoked, err := revocations.IsRevoked(c, claims.ID)
				if err != nil {
					err = fmt.Errorf("failed checking token revocation with error=%w", err)
					otel.RecordError(err, span)
					logger.Error().Err(err).Msg(err.Error())
					inHttp.WriteFailed(c, w, http.StatusInternalServerError, err)
					return
				}
				if revoked {
					err = inErrors.ErrTokenRevoked
					otel.RecordError(err, span)
					logger.Error().Err(err).Str(log.KeyTokenID, claims.ID).Msg(err.Error())
					inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
					return
				}
			}
			logger.Trace().Msg("authorized request")

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
