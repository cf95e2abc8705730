package mfa

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

// client はresty + Circuit BreakerによるMFA APIクライアントの実装
type client struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	baseURL    string
}

// NewClient は新しいMFA APIクライアントを生成する。
// 認証はAPIキー・シークレットによるBasic認証。
func NewClient(cfg *config.Config) Client {
	httpClient := resty.New().
		SetTimeout(config.MFARequestTimeout).
		SetBasicAuth(cfg.MFAAPIKey, cfg.MFAAPISecret)

	cbSettings := gobreaker.Settings{
		Name:        config.CBName,
		MaxRequests: config.CBMaxRequests,
		Interval:    config.CBInterval,
		Timeout:     config.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.CBFailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				slog.Warn("circuit breaker opened",
					"event_id", "CB_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateHalfOpen:
				slog.Info("circuit breaker half-open",
					"event_id", "CB_HALF_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateClosed:
				slog.Info("circuit breaker closed",
					"event_id", "CB_CLOSE",
					"cb_name", name,
				)
			}
		},
	}

	return &client{
		httpClient: httpClient,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		baseURL:    strings.TrimRight(cfg.MFAAPIURL, "/"),
	}
}

// CreateSecondFactorRequest は第二要素判定リクエストを送信する。
func (c *client) CreateSecondFactorRequest(ctx context.Context, req *AccessRequest) (*AccessResponse, error) {
	return c.post(ctx, PathAccessRequests, req)
}

// Challenge は進行中の第二要素リクエストへの応答入力を送信する。
func (c *client) Challenge(ctx context.Context, req *ChallengeRequest) (*AccessResponse, error) {
	return c.post(ctx, PathChallenge, req)
}

func (c *client) post(ctx context.Context, path string, body any) (*AccessResponse, error) {
	start := time.Now()

	result, err := c.cb.Execute(func() (any, error) {
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetHeader(HeaderContentType, ContentTypeJSON).
			SetBody(&requestEnvelope{Model: body}).
			Post(c.baseURL + path)

		if err != nil {
			return nil, &ConnectionError{Cause: err}
		}

		latencyMs := time.Since(start).Milliseconds()
		statusCode := resp.StatusCode()

		// CB失敗判定対象: 5xx
		if statusCode >= 500 {
			apiErr := &APIError{StatusCode: statusCode, Message: string(resp.Body())}
			slog.Error("mfa api error",
				"event_id", "MFA_API_ERR",
				"error", apiErr.Error(),
				"http_status", statusCode,
				"latency_ms", latencyMs,
			)
			return nil, apiErr
		}

		// CB失敗判定対象外のエラー: 4xx
		if statusCode != 200 {
			apiErr := &APIError{StatusCode: statusCode, Message: string(resp.Body())}
			slog.Error("mfa api error",
				"event_id", "MFA_API_ERR",
				"error", apiErr.Error(),
				"http_status", statusCode,
				"latency_ms", latencyMs,
			)
			// CB対象外エラーはnilを返してCBカウントに含めない
			return apiErr, nil
		}

		slog.Debug("mfa api success",
			"path", path,
			"latency_ms", latencyMs,
		)

		return resp.Body(), nil
	})

	if err != nil {
		// Circuit BreakerがOpen状態、接続失敗、5xxはいずれも到達不能として扱う
		return nil, c.classifyUnreachable(err)
	}

	// CB対象外のAPIError（4xx）の場合
	if apiErr, ok := result.(*APIError); ok {
		return nil, apiErr
	}

	raw, ok := result.([]byte)
	if !ok {
		return nil, ErrInvalidResponse
	}

	return c.parseResponse(raw)
}

// classifyUnreachable はCircuit Breaker・接続・5xxエラーをErrUnreachableに集約する。
// この分類は第二要素バイパスポリシーの判定に使用される。
func (c *client) classifyUnreachable(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return ErrUnreachable
	}
	if connErr, ok := err.(*ConnectionError); ok {
		slog.Warn("mfa api connection failed",
			"event_id", "MFA_API_CONN_ERR",
			"error", connErr.Error(),
		)
		return ErrUnreachable
	}
	if apiErr, ok := err.(*APIError); ok && apiErr.IsServerError() {
		return ErrUnreachable
	}
	return err
}

// parseResponse はJSONレスポンスをAccessResponseに変換する。
func (c *client) parseResponse(body []byte) (*AccessResponse, error) {
	var envelope responseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ErrInvalidResponse
	}
	if envelope.Model == nil {
		return nil, ErrInvalidResponse
	}
	return envelope.Model, nil
}
