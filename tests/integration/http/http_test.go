//go:build integration

package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/JMURv/device-auth/internal/dto"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req, err := http.NewRequest(method, ts.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func login(t *testing.T, ts *httptest.Server, username, password, device string) (*dto.Session, int) {
	resp := do(t, ts, http.MethodPost, "/auth/login", "", map[string]any{
		"username": username,
		"password": password,
		"deviceId": device,
	})
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}

	res := &dto.Session{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(res))
	return res, resp.StatusCode
}

func createAccount(t *testing.T, ts *httptest.Server, adminToken, username string, quota int) *dto.CreateAccountResponse {
	resp := do(t, ts, http.MethodPost, "/admin/accounts", adminToken, map[string]any{
		"username":   username,
		"password":   "alice-password",
		"maxDevices": quota,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	res := &dto.CreateAccountResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(res))
	return res
}

func TestDeviceQuotaFlow(t *testing.T) {
	ts := setupTestServer(t)

	admin, code := login(t, ts, adminUsername, adminPassword, "admin-console")
	require.Equal(t, http.StatusOK, code)
	acc := createAccount(t, ts, admin.Token, "alice", 2)

	s1, code := login(t, ts, "alice", "alice-password", "D1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, s1.Account.CurrentDevices)
	assert.True(t, s1.Account.IsOnline)

	s2, code := login(t, ts, "alice", "alice-password", "D2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, s2.Account.CurrentDevices)

	_, code = login(t, ts, "alice", "alice-password", "D3")
	assert.Equal(t, http.StatusForbidden, code)

	s1, code = login(t, ts, "alice", "alice-password", "D1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, s1.Account.CurrentDevices)

	resp := do(t, ts, http.MethodDelete, "/devices/D2", s1.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, code = login(t, ts, "alice", "alice-password", "D3")
	assert.Equal(t, http.StatusOK, code)

	resp = do(t, ts, http.MethodGet, "/auth/me", s1.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodPut, "/admin/accounts/"+acc.ID.String(), admin.Token, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/auth/me", s1.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/auth/logout", s1.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConcurrentLoginsRespectQuota(t *testing.T) {
	ts := setupTestServer(t)

	admin, code := login(t, ts, adminUsername, adminPassword, "admin-console")
	require.Equal(t, http.StatusOK, code)
	createAccount(t, ts, admin.Token, "bob", 3)

	devices := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	codes := make([]int, len(devices))

	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		go func(i int, d string) {
			defer wg.Done()
			_, codes[i] = login(t, ts, "bob", "alice-password", d)
		}(i, d)
	}
	wg.Wait()

	admitted := 0
	for _, c := range codes {
		if c == http.StatusOK {
			admitted++
		} else {
			assert.Equal(t, http.StatusForbidden, c)
		}
	}
	assert.Equal(t, 3, admitted)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := setupTestServer(t)

	_, unknown := login(t, ts, "nobody", "whatever", "D1")
	_, wrong := login(t, ts, adminUsername, "wrong-password", "D1")

	assert.Equal(t, http.StatusUnauthorized, unknown)
	assert.Equal(t, unknown, wrong)
}
