package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain домен ошибок, передаваемый в gRPC ErrorInfo
const ErrorDomain = "rewardcard.platform"

// Error представляет кастомную ошибку с дополнительной информацией
type Error struct {
	Code    ErrorCode       `json:"code"`
	Reason  Reason          `json:"reason,omitempty"`
	Message string          `json:"message"`
	Details string          `json:"details,omitempty"`
	Cause   error           `json:"-"`
	Context context.Context `json:"-"`
}

// ErrorCode представляет код ошибки
type ErrorCode string

// Определение кодов ошибок
const (
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrConflict            ErrorCode = "CONFLICT"
	ErrForbidden           ErrorCode = "FORBIDDEN"
	ErrInvalidCredential   ErrorCode = "INVALID_CREDENTIAL"
	ErrExpired             ErrorCode = "EXPIRED"
	ErrUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrValidation          ErrorCode = "VALIDATION_ERROR"
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrInternal            ErrorCode = "INTERNAL_ERROR"
)

// Reason уточняет причину ошибки внутри кода
type Reason string

// Причины ошибок
const (
	ReasonCardIDInUse              Reason = "CARD_ID_IN_USE"
	ReasonAlreadyRedeemed          Reason = "ALREADY_REDEEMED"
	ReasonCardExpired              Reason = "CARD_EXPIRED"
	ReasonCardNotFound             Reason = "CARD_NOT_FOUND"
	ReasonEmployeeNotFound         Reason = "EMPLOYEE_NOT_FOUND"
	ReasonEmployeeLocked           Reason = "EMPLOYEE_LOCKED"
	ReasonManagerNotFound          Reason = "MANAGER_NOT_FOUND"
	ReasonInsufficientApprovalRole Reason = "INSUFFICIENT_APPROVAL_ROLE"
	ReasonApprovalRequired         Reason = "APPROVAL_REQUIRED"
	ReasonInvalidApprover          Reason = "INVALID_APPROVER"
	ReasonInvalidIdentity          Reason = "INVALID_IDENTITY"
	ReasonInvalidPassword          Reason = "INVALID_PASSWORD"
	ReasonPermissionDenied         Reason = "PERMISSION_DENIED"
	ReasonNotLoggedIn              Reason = "NOT_LOGGED_IN"
	ReasonSessionExpired           Reason = "SESSION_EXPIRED"
	ReasonInvalidPayload           Reason = "INVALID_PAYLOAD"
)

// Error возвращает сообщение об ошибке
func (e *Error) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap возвращает причину ошибки
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает по коду, а если у цели задана причина, то и по причине
func (e *Error) Is(target error) bool {
	targetError, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != targetError.Code {
		return false
	}
	return targetError.Reason == "" || e.Reason == targetError.Reason
}

// New создает новую кастомную ошибку
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает существующую ошибку в кастомную
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

func (e *Error) clone() *Error {
	c := *e
	return &c
}

// WithReason добавляет причину к ошибке
func (e *Error) WithReason(reason Reason) *Error {
	if e == nil {
		return nil
	}
	c := e.clone()
	c.Reason = reason
	return c
}

// WithDetails добавляет детали к ошибке
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	c := e.clone()
	c.Details = details
	return c
}

// WithCause добавляет исходную ошибку
func (e *Error) WithCause(cause error) *Error {
	if e == nil {
		return nil
	}
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext добавляет контекст к ошибке
func (e *Error) WithContext(ctx context.Context) *Error {
	if e == nil {
		return nil
	}
	c := e.clone()
	c.Context = ctx
	return c
}

// As извлекает *Error из цепочки ошибок
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// FromError приводит любую ошибку к *Error; неизвестные ошибки считаются внутренними
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Wrap(err, ErrInternal, "internal error")
}

// CodeOf возвращает код ошибки или пустую строку
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// ReasonOf возвращает причину ошибки или пустую строку
func ReasonOf(err error) Reason {
	if e, ok := As(err); ok {
		return e.Reason
	}
	return ""
}

// IsCode проверяет код ошибки в цепочке
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

var grpcCodes = map[ErrorCode]codes.Code{
	ErrNotFound:            codes.NotFound,
	ErrConflict:            codes.AlreadyExists,
	ErrForbidden:           codes.PermissionDenied,
	ErrInvalidCredential:   codes.Unauthenticated,
	ErrExpired:             codes.FailedPrecondition,
	ErrUpstreamUnavailable: codes.Unavailable,
	ErrValidation:          codes.InvalidArgument,
	ErrRateLimited:         codes.ResourceExhausted,
	ErrInternal:            codes.Internal,
}

// ToGRPCErr переводит кастомную ошибку в gRPC статус
func (e *Error) ToGRPCErr() error {
	if e == nil {
		return nil
	}

	grpcCode, ok := grpcCodes[e.Code]
	if !ok {
		grpcCode = codes.Unknown
	}

	st := status.New(grpcCode, e.Message)

	if e.Reason != "" || e.Details != "" {
		info := &errdetails.ErrorInfo{
			Reason:   string(e.Reason),
			Domain:   ErrorDomain,
			Metadata: map[string]string{},
		}
		if e.Details != "" {
			info.Metadata["details"] = e.Details
		}
		if e.Context != nil {
			if traceID, ok := e.Context.Value(traceIDKey{}).(string); ok && traceID != "" {
				info.Metadata["trace_id"] = traceID
			}
		}

		withDetails, err := st.WithDetails(info)
		if err == nil {
			st = withDetails
		} else {
			log.Printf("Failed to add error details: %v", err)
		}
	}

	return st.Err()
}

// FromGRPCErr преобразует gRPC ошибку в кастомную ошибку
func FromGRPCErr(err error) *Error {
	if err == nil {
		return nil
	}

	grpcStatus, ok := status.FromError(err)
	if !ok {
		return Wrap(err, ErrInternal, "internal error")
	}

	code := ErrInternal
	for c, gc := range grpcCodes {
		if gc == grpcStatus.Code() {
			code = c
			break
		}
	}

	result := &Error{
		Code:    code,
		Message: grpcStatus.Message(),
	}
	for _, detail := range grpcStatus.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			result.Reason = Reason(info.GetReason())
			result.Details = info.GetMetadata()["details"]
		}
	}
	return result
}

// HTTPStatus возвращает соответствующий HTTP статус для ошибки
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}

	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrInvalidCredential:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrExpired:
		return http.StatusGone
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var reasonMessages = map[Reason]string{
	ReasonCardIDInUse:              "A kártya azonosító már használatban van vagy érvénytelen",
	ReasonAlreadyRedeemed:          "Ez a kártya már be lett váltva",
	ReasonCardExpired:              "Ez a kártya lejárt",
	ReasonCardNotFound:             "A kártya nem található",
	ReasonEmployeeNotFound:         "Az alkalmazott nem található",
	ReasonEmployeeLocked:           "Ez az alkalmazott zárolva van, nem kaphat jutalmat",
	ReasonManagerNotFound:          "A vezető nem található",
	ReasonInsufficientApprovalRole: "Csak Műszakvezető vagy Admin hagyhatja jóvá a kártya beváltását",
	ReasonApprovalRequired:         "Vezetői jóváhagyás szükséges",
	ReasonInvalidApprover:          "Érvénytelen vezetői jóváhagyás",
	ReasonInvalidIdentity:          "Érvénytelen vagy törölt vezetői kártya",
	ReasonInvalidPassword:          "Hibás azonosító vagy jelszó",
	ReasonPermissionDenied:         "Nincs jogosultsága ehhez a művelethez",
	ReasonNotLoggedIn:              "Nincs bejelentkezve",
	ReasonSessionExpired:           "A munkamenet inaktivitás miatt lejárt",
	ReasonInvalidPayload:           "Érvénytelen QR kód",
}

// GetUserMessage возвращает пользовательское сообщение об ошибке
// Поддерживает локализацию через контекст
func (e *Error) GetUserMessage() string {
	if e == nil {
		return ""
	}

	if e.Context != nil {
		if localizedMsg, ok := e.Context.Value(localizedMessageKey{}).(string); ok {
			return localizedMsg
		}
	}

	if msg, ok := reasonMessages[e.Reason]; ok {
		return msg
	}

	// Сообщения на венгерском по умолчанию
	switch e.Code {
	case ErrNotFound:
		return "A keresett elem nem található"
	case ErrValidation:
		return "Érvénytelen adatok"
	case ErrInvalidCredential:
		return "Hibás bejelentkezési adatok"
	case ErrForbidden:
		return "Hozzáférés megtagadva"
	case ErrConflict:
		return "Ütköző adatok"
	case ErrExpired:
		return "Lejárt"
	case ErrRateLimited:
		return "Túl sok próbálkozás, próbálja újra később"
	case ErrUpstreamUnavailable:
		return "Az adatbázis jelenleg nem érhető el"
	default:
		return "Belső szerverhiba"
	}
}

// WriteHTTP отправляет JSON ответ с ошибкой
func WriteHTTP(w http.ResponseWriter, err error) {
	e := FromError(err)

	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    e.Code,
			"reason":  e.Reason,
			"message": e.GetUserMessage(),
			"details": e.Details,
		},
	}

	jsonData, jsonErr := json.Marshal(response)
	if jsonErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Belső szerverhiba"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	_, _ = w.Write(jsonData)
}

type localizedMessageKey struct{}

type traceIDKey struct{}

// WithLocalizedMessage добавляет локализованное сообщение в контекст
func WithLocalizedMessage(ctx context.Context, localizedMessage string) context.Context {
	return context.WithValue(ctx, localizedMessageKey{}, localizedMessage)
}

// WithTraceID сохраняет trace_id для передачи в деталях gRPC статуса
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}
