package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestLoginEndpoint(t *testing.T) {
	e := newEnv(t)
	user := testhelpers.CreateUser(t, e.db, "cook")

	w := e.do(t, http.MethodPost, "/api/auth/token/login", types.LoginRequest{
		Email:    user.Email,
		Password: testhelpers.TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp types.TokenResponse
	testhelpers.DecodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.AuthToken)

	w = e.do(t, http.MethodGet, "/api/users/me", nil, resp.AuthToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/auth/token/login", types.LoginRequest{
		Email:    user.Email,
		Password: "nope-nope",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgInvalidCredentials, errorMessage(t, w))

	w = e.do(t, http.MethodPost, "/api/auth/token/login", map[string]string{"email": "bad"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "password")
}

func TestLogoutEndpoint(t *testing.T) {
	e := newEnv(t)
	user := testhelpers.CreateUser(t, e.db, "cook")

	w := e.do(t, http.MethodPost, "/api/auth/token/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/api/auth/token/logout", nil, e.token(t, user))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInvalidTokenRejectedEverywhere(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/recipes", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgInvalidToken, errorMessage(t, w))
}
