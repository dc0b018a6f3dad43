// Package client HTTP клиент API платформы карт поощрения. Реализует
// session.Directory для CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RewardCardPlatform/internal/domain"
	handler "RewardCardPlatform/internal/handler/http"
	"RewardCardPlatform/internal/middleware"
	"RewardCardPlatform/internal/service"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
)

const userAgent = "rewardctl/1.0"

// DefaultTimeout таймаут HTTP запроса по умолчанию
const DefaultTimeout = 10 * time.Second

// Client HTTP клиент API
type Client struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// New создает клиент для сервера baseURL
func New(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log.With(logger.String("component", "api_client")),
	}
}

// Exists проверяет карту руководителя: 404 означает удаленную карту,
// сетевая ошибка возвращается как UPSTREAM_UNAVAILABLE
func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/api/managers/"+url.PathEscape(id), nil, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.IsCode(err, errors.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// VerifyCredentials проверяет пароль руководителя на сервере
func (c *Client) VerifyCredentials(ctx context.Context, id, password string) (domain.ManagerInfo, error) {
	var info domain.ManagerInfo
	err := c.do(ctx, http.MethodPost, "/api/auth/login-by-id",
		handler.LoginByIDRequest{ID: id, Password: password}, &info)
	return info, err
}

// Authenticate проверяет пароль руководителя по имени
func (c *Client) Authenticate(ctx context.Context, username, password string) (domain.ManagerInfo, error) {
	var info domain.ManagerInfo
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		handler.LoginRequest{Username: username, Password: password}, &info)
	return info, err
}

// UpdatePassword меняет пароль руководителя
func (c *Client) UpdatePassword(ctx context.Context, id, password string) error {
	return c.do(ctx, http.MethodPost, "/api/managers/"+url.PathEscape(id)+"/password",
		handler.PasswordRequest{Password: password}, nil)
}

// Issue выдает карту поощрения
func (c *Client) Issue(ctx context.Context, req service.IssueRequest) (*domain.RewardCard, error) {
	var card domain.RewardCard
	if err := c.do(ctx, http.MethodPost, "/api/rewards/issue", req, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Redeem погашает карту от имени одобряющего
func (c *Client) Redeem(ctx context.Context, cardID string, approver domain.Approver) (*domain.RewardCard, error) {
	var card domain.RewardCard
	if err := c.do(ctx, http.MethodPost, "/api/rewards/redeem",
		handler.RedeemRequest{CardID: cardID, Approver: approver}, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Scan разрешает отсканированный QR-пейлоад
func (c *Client) Scan(ctx context.Context, payload string) (*handler.ScanResult, error) {
	var result handler.ScanResult
	if err := c.do(ctx, http.MethodPost, "/api/scan", handler.ScanRequest{Payload: payload}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Summary возвращает сводку панели управления
func (c *Client) Summary(ctx context.Context) (*service.Summary, error) {
	var s service.Summary
	if err := c.do(ctx, http.MethodGet, "/api/rewards/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if traceID := logger.TraceID(ctx); traceID != "" {
		req.Header.Set(middleware.TraceHeader, traceID)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("API request failed",
			logger.CtxField(ctx),
			logger.String("method", method),
			logger.String("path", path),
			logger.Error(err),
		)
		return errors.Wrap(err, errors.ErrUpstreamUnavailable, "server is unreachable")
	}
	defer resp.Body.Close()

	c.logger.Debug("API request completed",
		logger.CtxField(ctx),
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status_code", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to decode response")
	}
	return nil
}

// decodeError восстанавливает ошибку сервера из тела ответа
func decodeError(resp *http.Response) error {
	var body struct {
		Error struct {
			Code    errors.ErrorCode `json:"code"`
			Reason  errors.Reason    `json:"reason"`
			Message string           `json:"message"`
			Details string           `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Code == "" {
		code := errors.ErrInternal
		if resp.StatusCode >= http.StatusInternalServerError {
			code = errors.ErrUpstreamUnavailable
		}
		return errors.New(code, fmt.Sprintf("server returned status %d", resp.StatusCode))
	}
	e := errors.New(body.Error.Code, body.Error.Message).WithDetails(body.Error.Details)
	if body.Error.Reason != "" {
		e = e.WithReason(body.Error.Reason)
	}
	return e
}
