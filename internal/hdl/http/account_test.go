package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/JMURv/device-auth/internal/ctrl"
	"github.com/JMURv/device-auth/internal/dto"
	"github.com/JMURv/device-auth/internal/hdl"
	"github.com/JMURv/device-auth/internal/hdl/validation"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHandler_AdminOnly(t *testing.T) {
	h, mctrl := newTestHandler(t)
	expectSession(mctrl, "tok", md.RoleUser)

	w := doRequest(h, http.MethodGet, "/admin/accounts", "tok", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, []string{hdl.ErrForbidden.Error()}, decodeErrors(t, w))
}

func TestHandler_ListAccounts(t *testing.T) {
	h, mctrl := newTestHandler(t)
	expectSession(mctrl, "tok", md.RoleAdmin)

	active := true
	mctrl.EXPECT().ListAccounts(gomock.Any(), 2, 10, repo.AccountFilter{IsActive: &active, Role: md.RoleUser}).
		Return(&dto.PaginatedAccountResponse{
			Data:        []dto.AccountStatus{{Username: "alice", CurrentDevices: 2}},
			Count:       11,
			TotalPages:  2,
			CurrentPage: 2,
		}, nil)

	w := doRequest(h, http.MethodGet, "/admin/accounts?page=2&size=10&is_active=true&role=user", "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := &dto.PaginatedAccountResponse{}
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(res))
	assert.Equal(t, int64(11), res.Count)
	assert.Equal(t, 2, res.Data[0].CurrentDevices)
}

func TestHandler_CreateAccount(t *testing.T) {
	const uri = "/admin/accounts"
	h, mctrl := newTestHandler(t)

	tests := []struct {
		name    string
		payload map[string]any
		status  int
		expect  func()
	}{
		{
			name:    "Success",
			payload: map[string]any{"username": "bob", "password": "secret1", "maxDevices": 2},
			status:  http.StatusCreated,
			expect: func() {
				mctrl.EXPECT().CreateAccount(gomock.Any(), &dto.CreateAccountRequest{
					Username:   "bob",
					Password:   "secret1",
					MaxDevices: 2,
				}).Return(&dto.CreateAccountResponse{ID: uuid.New(), Username: "bob"}, nil)
			},
		},
		{
			name:    "ShortPassword",
			payload: map[string]any{"username": "bob", "password": "123"},
			status:  http.StatusBadRequest,
			expect:  func() {},
		},
		{
			name:    "PasswordTooLong",
			payload: map[string]any{"username": "bob", "password": strings.Repeat("p", 80)},
			status:  http.StatusBadRequest,
			expect:  func() {},
		},
		{
			name:    "Taken",
			payload: map[string]any{"username": "bob", "password": "secret1"},
			status:  http.StatusConflict,
			expect: func() {
				mctrl.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(nil, ctrl.ErrAlreadyExists)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectSession(mctrl, "tok", md.RoleAdmin)
			tt.expect()
			w := doRequest(h, http.MethodPost, uri, "tok", tt.payload)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandler_GetAccount(t *testing.T) {
	h, mctrl := newTestHandler(t)
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		expectSession(mctrl, "tok", md.RoleAdmin)
		mctrl.EXPECT().GetAccount(gomock.Any(), id).Return(&dto.AccountStatus{ID: id}, nil)

		w := doRequest(h, http.MethodGet, "/admin/accounts/"+id.String(), "tok", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("BadUUID", func(t *testing.T) {
		expectSession(mctrl, "tok", md.RoleAdmin)

		w := doRequest(h, http.MethodGet, "/admin/accounts/not-a-uuid", "tok", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{hdl.ErrFailedToParseUUID.Error()}, decodeErrors(t, w))
	})

	t.Run("NotFound", func(t *testing.T) {
		expectSession(mctrl, "tok", md.RoleAdmin)
		mctrl.EXPECT().GetAccount(gomock.Any(), id).Return(nil, ctrl.ErrNotFound)

		w := doRequest(h, http.MethodGet, "/admin/accounts/"+id.String(), "tok", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_UpdateAccount(t *testing.T) {
	h, mctrl := newTestHandler(t)
	id := uuid.New()
	uri := "/admin/accounts/" + id.String()

	t.Run("Success", func(t *testing.T) {
		expectSession(mctrl, "tok", md.RoleAdmin)
		mctrl.EXPECT().UpdateAccount(gomock.Any(), id, gomock.Any()).DoAndReturn(
			func(_ any, _ uuid.UUID, req *dto.UpdateAccountRequest) error {
				require.NotNil(t, req.IsActive)
				assert.False(t, *req.IsActive)
				return nil
			},
		)

		w := doRequest(h, http.MethodPut, uri, "tok", map[string]any{"isActive": false})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Empty", func(t *testing.T) {
		expectSession(mctrl, "tok", md.RoleAdmin)

		w := doRequest(h, http.MethodPut, uri, "tok", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{validation.ErrEmptyUpdate.Error()}, decodeErrors(t, w))
	})

	t.Run("ConflictingExpiry", func(t *testing.T) {
		expectSession(mctrl, "tok", md.RoleAdmin)

		w := doRequest(h, http.MethodPut, uri, "tok", map[string]any{
			"noExpiry":  true,
			"expiresAt": "2027-01-01T00:00:00Z",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_DeleteAccount(t *testing.T) {
	h, mctrl := newTestHandler(t)
	id := uuid.New()

	expectSession(mctrl, "tok", md.RoleAdmin)
	mctrl.EXPECT().DeleteAccount(gomock.Any(), id).Return(nil)

	w := doRequest(h, http.MethodDelete, "/admin/accounts/"+id.String(), "tok", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandler_DeleteAccountDevice(t *testing.T) {
	h, mctrl := newTestHandler(t)
	id := uuid.New()

	expectSession(mctrl, "tok", md.RoleAdmin)
	mctrl.EXPECT().DeleteDevice(gomock.Any(), id, "D2").Return(nil)

	w := doRequest(h, http.MethodDelete, "/admin/accounts/"+id.String()+"/devices/D2", "tok", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
