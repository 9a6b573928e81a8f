package middleware

import (
	"context"
	"net/http"

	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/model"
)

const (
	userIDHeader   = "X-User-ID"
	userRoleHeader = "X-User-Role"
)

const actorKey contextKey = "actor"

// ActorAuth resolves the acting identity from trusted gateway headers.
// Identity verification happens upstream; an absent user ID means the
// request never passed the gateway and is rejected.
func ActorAuth(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(userIDHeader)
			if userID == "" {
				log.Warn("Request without actor identity",
					"request_id", RequestIDFrom(r),
					"path", r.URL.Path,
					"method", r.Method,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Missing X-User-ID header"}`))
				return
			}

			role := model.RoleUser
			if r.Header.Get(userRoleHeader) == string(model.RoleAdmin) {
				role = model.RoleAdmin
			}

			ctx := context.WithValue(r.Context(), actorKey, model.Actor{ID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the authenticated actor stored by ActorAuth.
func ActorFrom(r *http.Request) (model.Actor, bool) {
	actor, ok := r.Context().Value(actorKey).(model.Actor)
	return actor, ok
}
