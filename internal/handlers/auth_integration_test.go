package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitnest/splitnest/internal/handlers/testutil"
)

func TestAuthRegisterLoginProfile(t *testing.T) {
	env := testutil.NewEnv(t)

	registered := env.Register("Alice", "+15550001", "secret123")

	me := env.Request(http.MethodGet, "/api/auth/profile", nil, registered.Token)
	require.Equal(t, http.StatusOK, me.Code)
	meResp := testutil.DecodeResponse(t, me)
	require.True(t, meResp.Success)
	var profile testutil.UserPayload
	testutil.DecodeInto(t, meResp.Data, &profile)
	require.Equal(t, registered.User.ID, profile.ID)
	require.Equal(t, "Alice", profile.Name)

	login := env.Login("+15550001", "secret123")
	require.Equal(t, registered.User.ID, login.User.ID)

	unauth := env.Request(http.MethodGet, "/api/auth/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, unauth.Code)
}

func TestAuthRegisterDuplicatePhoneIsConflict(t *testing.T) {
	env := testutil.NewEnv(t)

	env.Register("Alice", "+15550001", "secret123")

	payload := map[string]string{"name": "Impostor", "phone": "+15550001", "password": "other456"}
	w := env.Request(http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusConflict, w.Code)

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, "PHONE_TAKEN", resp.Error.Code)
}

func TestAuthLoginBadCredentials(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Register("Alice", "+15550001", "secret123")

	payload := map[string]string{"phone": "+15550001", "password": "wrong"}
	w := env.Request(http.MethodPost, "/api/auth/login", payload, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestAuthValidationErrors(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{"name": "NoPhone"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestAuthVerifyPhone(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Register("Alice", "+15550001", "secret123")

	w := env.Request(http.MethodPost, "/api/auth/verify-phone", map[string]string{"phone": "+15550001"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var data map[string]bool
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &data)
	require.True(t, data["exists"])

	w = env.Request(http.MethodPost, "/api/auth/verify-phone", map[string]string{"phone": "+15559999"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &data)
	require.False(t, data["exists"])
}

func TestAuthChangePassword(t *testing.T) {
	env := testutil.NewEnv(t)
	registered := env.Register("Alice", "+15550001", "secret123")

	payload := map[string]string{"current_password": "secret123", "new_password": "newsecret456"}
	w := env.Request(http.MethodPut, "/api/auth/change-password", payload, registered.Token)
	require.Equal(t, http.StatusOK, w.Code)

	old := env.Request(http.MethodPost, "/api/auth/login", map[string]string{"phone": "+15550001", "password": "secret123"}, "")
	require.Equal(t, http.StatusUnauthorized, old.Code)

	env.Login("+15550001", "newsecret456")
}
