package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
)

type ctxKey string

const userKey ctxKey = "user"

// authenticate resolves the bearer token to the calling user and stores it
// in the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			h.fail(w, r, common.ErrorUnauthenticated, noResource)
			return
		}

		user, err := h.resolver.Resolve(r.Context(), token)
		if err != nil {
			h.fail(w, r, err, noResource)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// caller is set by authenticate; handlers behind it can rely on it.
func caller(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey).(*models.User)
	return u
}

// observe writes the access log line and records request metrics.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeTemplate(r)
		m := httpsnoop.CaptureMetrics(next, w, r)

		if h.metrics != nil {
			h.metrics.observe(route, r.Method, m.Code, m.Duration)
		}
		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", m.Code,
			"duration", m.Duration,
		)
	})
}

func routeTemplate(r *http.Request) string {
	if cr := mux.CurrentRoute(r); cr != nil {
		if t, err := cr.GetPathTemplate(); err == nil {
			return t
		}
	}
	return "unmatched"
}
