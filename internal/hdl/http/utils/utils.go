package utils

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/ctrl"
	"github.com/JMURv/device-auth/internal/dto"
	"github.com/JMURv/device-auth/internal/hdl"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const maxSize = 100

var validate = validator.New()

type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

func SuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Debug("failed to encode response", zap.Error(err))
	}
}

func StatusResponse(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}

func ErrResponse(w http.ResponseWriter, statusCode int, err error) {
	ErrorsResponseWith(w, statusCode, err.Error())
}

func ErrorsResponseWith(w http.ResponseWriter, statusCode int, msgs ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(&ErrorsResponse{Errors: msgs}); err != nil {
		zap.L().Debug("failed to encode response", zap.Error(err))
	}
}

// ErrorStatus maps a controller error onto its HTTP status. Unknown errors
// map to 500.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, hdl.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAccountDisabled), errors.Is(err, auth.ErrAccountExpired),
		errors.Is(err, auth.ErrDeviceQuotaExceeded), errors.Is(err, ctrl.ErrCaptchaFailed),
		errors.Is(err, hdl.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ctrl.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ctrl.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ctrl.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FailResponse writes err with the status from ErrorStatus. Store failures and
// unknown errors are logged and replaced by a generic message.
func FailResponse(w http.ResponseWriter, op string, err error) {
	code := ErrorStatus(err)
	switch code {
	case http.StatusServiceUnavailable:
		zap.L().Error("store unavailable", zap.String("op", op), zap.Error(err))
		ErrResponse(w, code, ctrl.ErrStoreUnavailable)
	case http.StatusInternalServerError:
		zap.L().Error("internal error", zap.String("op", op), zap.Error(err))
		ErrResponse(w, code, hdl.ErrInternal)
	default:
		ErrResponse(w, code, err)
	}
}

// ParseAndValidate decodes the JSON body into dst and runs its validate tags.
// It writes a 400 response and returns false on failure.
func ParseAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		zap.L().Debug("failed to decode request", zap.Error(err))
		ErrResponse(w, http.StatusBadRequest, hdl.ErrDecodeRequest)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Error())
			}
			ErrorsResponseWith(w, http.StatusBadRequest, msgs...)
			return false
		}
		ErrResponse(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func ParsePaginationValues(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = config.DefaultPage
	}

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size < 1 {
		size = config.DefaultSize
	}
	if size > maxSize {
		size = maxSize
	}

	return page, size
}

func ParseAccountFilter(r *http.Request) repo.AccountFilter {
	q := r.URL.Query()
	parseBool := func(key string) *bool {
		v, err := strconv.ParseBool(q.Get(key))
		if err != nil {
			return nil
		}
		return &v
	}

	f := repo.AccountFilter{
		IsActive: parseBool("is_active"),
		IsOnline: parseBool("is_online"),
	}
	if role := md.Role(q.Get("role")); role.Valid() {
		f.Role = role
	}
	return f
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, config.TokenType) {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func SessionFromContext(ctx context.Context) (*dto.AccountContext, bool) {
	s, ok := ctx.Value(config.SessionKey).(*dto.AccountContext)
	return s, ok && s != nil
}
