package rest

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/gorilla/mux"
)

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to FinWise API"})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := h.health(ctx); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// token accepts an OAuth2 password form (username, password) or a JSON body
// (email or username, password).
func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := decodeJSON(r, w, &req); err != nil {
			h.fail(w, r, err, noResource)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, errMalformedBody, noResource)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	fields := map[string]string{}
	if req.login() == "" {
		fields["username"] = "cannot be blank"
	}
	if req.Password == "" {
		fields["password"] = "cannot be blank"
	}
	if len(fields) > 0 {
		h.fail(w, r, &common.ValidationError{Fields: fields}, noResource)
		return
	}

	tok, err := h.auth.Login(r.Context(), req.login(), req.Password)
	if err != nil {
		h.fail(w, r, err, noResource)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(tok))
}

// --- users ---

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err, userResource)
		return
	}

	u, err := h.users.Register(r.Context(), req.toModel())
	if err != nil {
		h.fail(w, r, err, userResource)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Profile(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err, userResource)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req userPatchRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err, userResource)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), caller(r), req.toModel())
	if err != nil {
		h.fail(w, r, err, userResource)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.DeleteAccount(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err, userResource)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// --- transactions ---

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip")
	if err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}

	list, err := h.transactions.List(r.Context(), caller(r), skip, limit)
	if err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}

	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, common.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}

	n, err := req.toNew()
	if err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}

	t, err := h.transactions.Create(r.Context(), caller(r), n)
	if err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.transactions.Get(r.Context(), caller(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err, transactionUpdating)
		return
	}

	t, err := h.transactions.Update(r.Context(), caller(r), mux.Vars(r)["id"], req.toPatch())
	if err != nil {
		h.fail(w, r, err, transactionUpdating)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.transactions.Delete(r.Context(), caller(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err, transactionDeleting)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) exportTransactions(w http.ResponseWriter, r *http.Request) {
	res, err := h.exporter.Export(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err, transactionAccess)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{URL: res.URL, Key: res.Key, ExpiresAt: res.ExpiresAt, Count: res.Count})
}
