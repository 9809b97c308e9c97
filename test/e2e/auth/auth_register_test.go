package auth_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRegisterLoginRoundTrip drives the whole happy path against a real
// container: initiate, read the code back from the logs, complete, then
// log in again and fetch userinfo with the issued token.
func TestRegisterLoginRoundTrip(t *testing.T) {
	baseURL, container, cleanup := setupAuthContainer(t)
	defer cleanup()

	const email = "alice@example.com"
	const password = "correct horse battery"

	// Step 1: initiate registration.
	status, _ := postJSON(t, baseURL+"/v1/auth/register/initiate", map[string]string{
		"email": email,
	})
	require.Equal(t, http.StatusOK, status)

	code := latestOtpFromLogs(t, container)

	// Step 2: complete registration with the emailed code.
	status, body := postJSON(t, baseURL+"/v1/auth/register/complete", map[string]string{
		"email":    email,
		"password": password,
		"otp":      code,
	})
	require.Equal(t, http.StatusOK, status)

	var tokenResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	// Step 3: the same credentials now log in on their own.
	status, body = postJSON(t, baseURL+"/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	// Step 4: the login token grants access to userinfo.
	status, body = getJSON(t, baseURL+"/v1/userinfo", tokenResp.Token)
	require.Equal(t, http.StatusOK, status)

	var info struct {
		Email   string `json:"email"`
		Role    string `json:"role"`
		Enabled bool   `json:"enabled"`
	}
	require.NoError(t, json.Unmarshal(body, &info))
	require.Equal(t, email, info.Email)
	require.Equal(t, "USER", info.Role)
	require.True(t, info.Enabled)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	baseURL, container, cleanup := setupAuthContainer(t)
	defer cleanup()

	const email = "bob@example.com"

	status, _ := postJSON(t, baseURL+"/v1/auth/register/initiate", map[string]string{
		"email": email,
	})
	require.Equal(t, http.StatusOK, status)

	code := latestOtpFromLogs(t, container)

	status, _ = postJSON(t, baseURL+"/v1/auth/register/complete", map[string]string{
		"email":    email,
		"password": "a perfectly fine pass",
		"otp":      code,
	})
	require.Equal(t, http.StatusOK, status)

	// A second initiate for the same address conflicts.
	status, body := postJSON(t, baseURL+"/v1/auth/register/initiate", map[string]string{
		"email": email,
	})
	require.Equal(t, http.StatusConflict, status)

	var errResp struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Path    string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(body, &errResp))
	require.Equal(t, http.StatusConflict, errResp.Status)
	require.Equal(t, "/v1/auth/register/initiate", errResp.Path)
}

func TestRegisterCompleteWrongCode(t *testing.T) {
	baseURL, _, cleanup := setupAuthContainer(t)
	defer cleanup()

	const email = "carol@example.com"

	status, _ := postJSON(t, baseURL+"/v1/auth/register/initiate", map[string]string{
		"email": email,
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = postJSON(t, baseURL+"/v1/auth/register/complete", map[string]string{
		"email":    email,
		"password": "a perfectly fine pass",
		"otp":      "000000",
	})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	baseURL, container, cleanup := setupAuthContainer(t)
	defer cleanup()

	const email = "dave@example.com"
	const password = "the real password"

	status, _ := postJSON(t, baseURL+"/v1/auth/register/initiate", map[string]string{
		"email": email,
	})
	require.Equal(t, http.StatusOK, status)

	code := latestOtpFromLogs(t, container)

	status, _ = postJSON(t, baseURL+"/v1/auth/register/complete", map[string]string{
		"email":    email,
		"password": password,
		"otp":      code,
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = postJSON(t, baseURL+"/v1/auth/login", map[string]string{
		"email":    email,
		"password": "not the password",
	})
	require.Equal(t, http.StatusUnauthorized, status)

	// Unknown accounts get the identical answer.
	status, _ = postJSON(t, baseURL+"/v1/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, status)
}
