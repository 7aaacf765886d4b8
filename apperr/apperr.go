// Package apperr defines the error taxonomy shared by services and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindLimitExceeded
	KindAIUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindAIUnavailable:
		return "ai_unavailable"
	default:
		return "server"
	}
}

// Error is a user-facing failure. Message is shown to the client; Err is kept for logs.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Status: http.StatusBadRequest}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Status: http.StatusUnauthorized}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg, Status: http.StatusForbidden}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Status: http.StatusNotFound}
}

// AIDisabled is returned when the plan does not include AI features.
func AIDisabled(msg string) *Error {
	return &Error{Kind: KindAIUnavailable, Message: msg, Status: http.StatusForbidden}
}

// AIFailed wraps a provider failure.
func AIFailed(err error) *Error {
	return &Error{
		Kind:    KindAIUnavailable,
		Message: "não foi possível gerar o conteúdo com a IA, tente novamente",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Server(err error) *Error {
	return &Error{Kind: KindServer, Message: "erro interno do servidor", Status: http.StatusInternalServerError, Err: err}
}

// LimitExceededError reports a monthly quota reached. Scope is "user" or "company".
type LimitExceededError struct {
	Resource string
	Scope    string
	Used     int64
	Limit    int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limite de %s atingido (%d/%d)", e.Resource, e.Used, e.Limit)
}

// Message is the Portuguese text returned to the client.
func (e *LimitExceededError) Message() string {
	switch e.Resource {
	case "sermons":
		if e.Scope == "user" {
			return fmt.Sprintf("Você atingiu seu limite individual de sermões deste mês (%d/%d).", e.Used, e.Limit)
		}
		return fmt.Sprintf("Sua igreja atingiu o limite de sermões do plano neste mês (%d/%d). Faça upgrade para continuar.", e.Used, e.Limit)
	case "users":
		return fmt.Sprintf("Limite de usuários do plano atingido (%d/%d).", e.Used, e.Limit)
	case "churches":
		return fmt.Sprintf("Limite de igrejas do plano atingido (%d/%d).", e.Used, e.Limit)
	}
	return e.Error()
}

func IsLimitExceeded(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}

// KindOf classifies any error; unknown errors are KindServer.
func KindOf(err error) Kind {
	if err == nil {
		return KindServer
	}
	if IsLimitExceeded(err) {
		return KindLimitExceeded
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindServer
}

// IsAuth reports missing/invalid credentials or insufficient role.
func IsAuth(err error) bool {
	k := KindOf(err)
	return k == KindUnauthorized || k == KindForbidden
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	if IsLimitExceeded(err) {
		return http.StatusForbidden
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text safe to show to the client.
func PublicMessage(err error) string {
	var le *LimitExceededError
	if errors.As(err, &le) {
		return le.Message()
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "erro interno do servidor"
}
