package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestNewError проверяет создание новой ошибки
func TestNewError(t *testing.T) {
	e := New(ErrNotFound, "card not found")
	require.NotNil(t, e)

	assert.Equal(t, ErrNotFound, e.Code)
	assert.Equal(t, "card not found", e.Message)
	assert.Nil(t, e.Cause)
	assert.Equal(t, "card not found", e.Error())
}

// TestWrapError проверяет оборачивание существующей ошибки
func TestWrapError(t *testing.T) {
	originalErr := fmt.Errorf("connection refused")
	e := Wrap(originalErr, ErrUpstreamUnavailable, "record store unavailable")

	require.NotNil(t, e)
	assert.Equal(t, ErrUpstreamUnavailable, e.Code)
	assert.Same(t, originalErr, stderrors.Unwrap(e))
	assert.Equal(t, "record store unavailable: connection refused", e.Error())

	assert.Nil(t, Wrap(nil, ErrInternal, "nothing"))
}

// TestBuilders проверяет, что WithReason/WithDetails не меняют исходную ошибку
func TestBuilders(t *testing.T) {
	base := New(ErrConflict, "card id in use")
	withReason := base.WithReason(ReasonCardIDInUse).WithDetails("card=abc")

	assert.Empty(t, base.Reason)
	assert.Empty(t, base.Details)
	assert.Equal(t, ReasonCardIDInUse, withReason.Reason)
	assert.Equal(t, "card=abc", withReason.Details)
	assert.Equal(t, "card id in use [CARD_ID_IN_USE]", withReason.Error())

	var nilErr *Error
	assert.Nil(t, nilErr.WithReason(ReasonCardExpired))
	assert.Nil(t, nilErr.WithDetails("x"))
	assert.Nil(t, nilErr.WithContext(context.Background()))
}

// TestIs проверяет сравнение по коду и причине
func TestIs(t *testing.T) {
	redeemed := New(ErrConflict, "already redeemed").WithReason(ReasonAlreadyRedeemed)
	wrapped := fmt.Errorf("redeem: %w", redeemed)

	assert.True(t, stderrors.Is(wrapped, New(ErrConflict, "")))
	assert.True(t, stderrors.Is(wrapped, New(ErrConflict, "").WithReason(ReasonAlreadyRedeemed)))
	assert.False(t, stderrors.Is(wrapped, New(ErrConflict, "").WithReason(ReasonCardIDInUse)))
	assert.False(t, stderrors.Is(wrapped, New(ErrNotFound, "")))

	assert.Equal(t, ErrConflict, CodeOf(wrapped))
	assert.Equal(t, ReasonAlreadyRedeemed, ReasonOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrConflict))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}

// TestFromError проверяет приведение произвольной ошибки
func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal, plain.Code)

	typed := New(ErrForbidden, "denied")
	assert.Same(t, typed, FromError(fmt.Errorf("wrap: %w", typed)))
}

// TestHTTPStatus проверяет соответствие кодов HTTP статусам
func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrNotFound:            http.StatusNotFound,
		ErrConflict:            http.StatusConflict,
		ErrForbidden:           http.StatusForbidden,
		ErrInvalidCredential:   http.StatusUnauthorized,
		ErrExpired:             http.StatusGone,
		ErrUpstreamUnavailable: http.StatusServiceUnavailable,
		ErrValidation:          http.StatusBadRequest,
		ErrRateLimited:         http.StatusTooManyRequests,
		ErrInternal:            http.StatusInternalServerError,
		ErrorCode("UNKNOWN"):   http.StatusInternalServerError,
	}

	for code, expected := range cases {
		assert.Equal(t, expected, New(code, "x").HTTPStatus(), string(code))
	}

	var nilErr *Error
	assert.Equal(t, http.StatusOK, nilErr.HTTPStatus())
}

// TestGetUserMessage проверяет венгерские сообщения и локализацию через контекст
func TestGetUserMessage(t *testing.T) {
	locked := New(ErrForbidden, "employee locked").WithReason(ReasonEmployeeLocked)
	assert.Equal(t, "Ez az alkalmazott zárolva van, nem kaphat jutalmat", locked.GetUserMessage())

	generic := New(ErrNotFound, "missing")
	assert.Equal(t, "A keresett elem nem található", generic.GetUserMessage())

	ctx := WithLocalizedMessage(context.Background(), "Custom message")
	localized := generic.WithContext(ctx)
	assert.Equal(t, "Custom message", localized.GetUserMessage())
}

// TestGRPCRoundTrip проверяет перенос кода, причины и деталей через gRPC статус
func TestGRPCRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-1")
	original := New(ErrConflict, "already redeemed").
		WithReason(ReasonAlreadyRedeemed).
		WithDetails("card=c1").
		WithContext(ctx)

	grpcErr := original.ToGRPCErr()
	st, ok := status.FromError(grpcErr)
	require.True(t, ok)
	assert.Equal(t, codes.AlreadyExists, st.Code())
	assert.Equal(t, "already redeemed", st.Message())
	require.Len(t, st.Details(), 1)

	restored := FromGRPCErr(grpcErr)
	assert.Equal(t, ErrConflict, restored.Code)
	assert.Equal(t, ReasonAlreadyRedeemed, restored.Reason)
	assert.Equal(t, "card=c1", restored.Details)
}

// TestGRPCCodes проверяет отображение кодов без деталей
func TestGRPCCodes(t *testing.T) {
	cases := map[ErrorCode]codes.Code{
		ErrNotFound:            codes.NotFound,
		ErrForbidden:           codes.PermissionDenied,
		ErrInvalidCredential:   codes.Unauthenticated,
		ErrExpired:             codes.FailedPrecondition,
		ErrUpstreamUnavailable: codes.Unavailable,
		ErrValidation:          codes.InvalidArgument,
		ErrInternal:            codes.Internal,
	}

	for code, grpcCode := range cases {
		err := New(code, "x").ToGRPCErr()
		assert.Equal(t, grpcCode, status.Code(err), string(code))
		assert.Equal(t, code, FromGRPCErr(err).Code)
	}

	var nilErr *Error
	assert.Nil(t, nilErr.ToGRPCErr())
	assert.Nil(t, FromGRPCErr(nil))
	assert.Equal(t, ErrInternal, FromGRPCErr(fmt.Errorf("plain")).Code)
}

// TestWriteHTTP проверяет формат JSON ответа с ошибкой
func TestWriteHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, fmt.Errorf("issue: %w", New(ErrConflict, "in use").WithReason(ReasonCardIDInUse)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "CARD_ID_IN_USE", body.Error.Reason)
	assert.Equal(t, "A kártya azonosító már használatban van vagy érvénytelen", body.Error.Message)
}
