package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/dto"
	"github.com/JMURv/device-auth/internal/hdl/http/utils"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/tests/mocks"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testServerConfig = config.ServerConfig{LoginRPS: 100, LoginBurst: 100}

func newTestHandler(t *testing.T) (*Handler, *mocks.MockAppCtrl) {
	mock := gomock.NewController(t)
	mctrl := mocks.NewMockAppCtrl(mock)
	return New(mctrl, testServerConfig), mctrl
}

func doRequest(h *Handler, method, uri, token string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}

	req := httptest.NewRequest(method, uri, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.Router.ServeHTTP(w, req)
	return w
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) []string {
	res := &utils.ErrorsResponse{}
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(res))
	return res.Errors
}

func expectSession(mctrl *mocks.MockAppCtrl, token string, role md.Role) *dto.AccountContext {
	s := &dto.AccountContext{ID: uuid.New(), Username: "alice", Role: role}
	mctrl.EXPECT().ResolveSession(gomock.Any(), token).Return(s, nil)
	return s
}

func TestHandler_Health(t *testing.T) {
	h, _ := newTestHandler(t)
	w := doRequest(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
