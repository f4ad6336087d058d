package captcha

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/dto"
	"github.com/goccy/go-json"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type Port interface {
	VerifyRecaptcha(ctx context.Context, token string, action Actions) (bool, error)
}

type Actions string

const (
	PassAuth Actions = "pass_auth"
)

const (
	captchaScore = 0.1
	verifyURL    = "https://www.google.com/recaptcha/api/siteverify"
)

type Core struct {
	enabled bool
	secret  string
	url     string
	cli     *http.Client
}

func New(conf config.Config) *Core {
	return &Core{
		enabled: conf.Auth.Captcha.Enabled,
		secret:  conf.Auth.Captcha.Secret,
		url:     verifyURL,
		cli:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Core) VerifyRecaptcha(ctx context.Context, token string, action Actions) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "VerifyRecaptcha")
	defer span.Finish()

	if !c.enabled {
		return true, nil
	}

	if token == "" {
		return false, nil
	}

	form := url.Values{
		"secret":   {c.secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.cli.Do(req)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to verify recaptcha", zap.Error(err))
		return false, ErrVerificationFailed
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			zap.L().Debug("failed to close body", zap.Error(err))
		}
	}(resp.Body)

	var result dto.RecaptchaResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to decode body", zap.Error(err))
		return false, ErrVerificationFailed
	}

	score := result.Success && result.Score > captchaScore
	if !score {
		zap.L().Debug("not enough score", zap.Float64("score", result.Score))
	}
	return score && result.Action == string(action), nil
}
