package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coursehub/wishlist/pkg/httputil"
	"github.com/coursehub/wishlist/pkg/middleware"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Authenticate resolves the wishlist owner. With a secret configured only a
// Bearer token signed with it is accepted, and its user_id (or sub) claim
// names the owner; X-User-ID is ignored. With an empty secret the X-User-ID
// header injected by the gateway is trusted. Requests with neither get a 401.
func Authenticate(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var uid string
			if secret != "" {
				token, ok := bearerToken(r)
				if !ok {
					writeUnauthorized(w, "authentication required")
					return
				}
				var err error
				uid, err = userIDFromToken(token, secret)
				if err != nil {
					logger.WarnContext(r.Context(), "invalid JWT token",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					writeUnauthorized(w, "invalid or expired token")
					return
				}
			} else {
				uid = strings.TrimSpace(r.Header.Get(middleware.UserIDHeader))
			}

			if uid == "" {
				writeUnauthorized(w, "authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

func userIDFromToken(tokenString, secret string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	uid, _ := claims["user_id"].(string)
	if uid == "" {
		uid, _ = claims["sub"].(string)
	}
	if uid == "" {
		return "", errors.New("token has no user_id or sub claim")
	}
	return uid, nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}

func userIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey).(string)
	return uid
}

// ContentTypeJSON rejects bodies that are not application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
