package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/server/auth"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

type errorResponse struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// decodeJSON reads a single JSON object into dst. Unknown fields are
// ignored. Syntax and type errors are errMalformedBody; an unparsable date
// stays a validation error.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return err
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// resource names what a failed request was about, for the detail message.
type resource struct {
	name   string
	action string
}

var (
	noResource          = resource{}
	userResource        = resource{name: "user", action: "access"}
	transactionAccess   = resource{name: "transaction", action: "access"}
	transactionUpdating = resource{name: "transaction", action: "update"}
	transactionDeleting = resource{name: "transaction", action: "delete"}
)

// fail maps err to a status code and a detail message. Internal causes are
// logged and never returned to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, res resource) {
	var (
		ve   *common.ValidationError
		weak *auth.WeakPasswordError
	)

	switch {
	case errors.Is(err, errMalformedBody):
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Validation error", Fields: ve.Fields})
	case errors.As(err, &weak):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: weak.Reason, Fields: map[string]string{"password": weak.Reason}})
	case errors.Is(err, common.ErrorValidation):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, common.ErrorAuthentication):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, common.ErrorUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, common.ErrorForbidden):
		writeDetail(w, http.StatusForbidden, fmt.Sprintf("Not authorized to %s this %s", res.action, res.name))
	case errors.Is(err, common.ErrorNotFound):
		writeDetail(w, http.StatusNotFound, notFoundDetail(res))
	case errors.Is(err, common.ErrorAlreadyExists):
		writeDetail(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the response
		h.logger.Debug(r.Context(), "request cancelled", "path", r.URL.Path)
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

func notFoundDetail(res resource) string {
	if res.name == "" {
		return "Not found"
	}
	return strings.ToUpper(res.name[:1]) + res.name[1:] + " not found"
}
