package rest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registerBody = `{"email": "a@example.com", "first_name": "Ada", "last_name": "Lovelace",
	"birthday": "1990-12-10", "password": "Abcd1234!"}`

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/users", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeBody[map[string]any](t, rec.Body.Bytes())
	assert.Equal(t, "a@example.com", got["email"])
	assert.Equal(t, "1990-12-10", got["birthday"])
	assert.Equal(t, true, got["is_active"])
	assert.NotContains(t, got, "password")
	assert.NotContains(t, got, "password_hash")

	rec = env.do(http.MethodPost, "/users", "", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"detail":"Email already registered"}`, rec.Body.String())
}

func TestRegister_Rejected(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"weak password", `{"email": "a@example.com", "first_name": "Ada", "last_name": "L", "password": "abcdefgh"}`, http.StatusUnprocessableEntity, "password"},
		{"bad email", `{"email": "nope", "first_name": "Ada", "last_name": "L", "password": "Abcd1234!"}`, http.StatusUnprocessableEntity, "email"},
		{"digits in name", `{"email": "a@example.com", "first_name": "Ada1", "last_name": "L", "password": "Abcd1234!"}`, http.StatusUnprocessableEntity, "first_name"},
		{"not json", `email=a@example.com`, http.StatusBadRequest, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/users", "", tc.body)

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.field != "" {
				assert.Contains(t, decodeBody[errorResponse](t, rec.Body.Bytes()).Fields, tc.field)
			}
		})
	}
}

func TestToken(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "a@example.com")

	form := func(user, pw string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/token",
			strings.NewReader(url.Values{"username": {user}, "password": {pw}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("form", func(t *testing.T) {
		rec := form("a@example.com", testPassword)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decodeBody[tokenResponse](t, rec.Body.Bytes())
		assert.Equal(t, "bearer", got.TokenType)
		sub, err := env.issuer.Verify(got.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", sub)
	})

	t.Run("json", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/token", "", `{"email": "a@example.com", "password": "`+testPassword+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotEmpty(t, decodeBody[tokenResponse](t, rec.Body.Bytes()).AccessToken)
	})

	t.Run("failures look the same", func(t *testing.T) {
		wrong := form("a@example.com", "Wrong1234!")
		unknown := form("ghost@example.com", testPassword)

		for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"detail":"Incorrect email or password"}`, rec.Body.String())
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := form("", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		got := decodeBody[errorResponse](t, rec.Body.Bytes())
		assert.Contains(t, got.Fields, "username")
		assert.Contains(t, got.Fields, "password")
	})
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.addUser(t, "a@example.com")
	env.addTransaction(t, u, "Rent")

	rec := env.do(http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, decodeBody[userResponse](t, rec.Body.Bytes()).ID)

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	rec = env.do(http.MethodPatch, "/users/me", token, `{"first_name": "Grace", "birthday": "1985-01-02"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[userResponse](t, rec.Body.Bytes())
	assert.Equal(t, "Grace", got.FirstName)
	assert.Equal(t, "User", got.LastName)
	require.NotNil(t, got.Birthday)
	assert.Equal(t, "1985-01-02", *got.Birthday)

	// the email is the token subject; a patch cannot move it
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	rec = env.do(http.MethodPatch, "/users/me", token, `{"email": "moved@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "a@example.com", decodeBody[userResponse](t, rec.Body.Bytes()).Email)

	rec = env.do(http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	rec = env.do(http.MethodDelete, "/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.repos.transactionCount())

	// the token outlives the account but no longer resolves
	rec = env.do(http.MethodGet, "/users/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
