package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	// CodeTransport marks requests that never produced a usable response
	// (connection refused, timeout, DNS failure).
	CodeTransport Code = "TRANSPORT_ERROR"
	// CodeDecode marks responses whose body could not be decoded or failed
	// schema validation at the client edge.
	CodeDecode Code = "DECODE_ERROR"
	// CodeValidation carries backend field-level validation messages.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeBusiness carries a backend business-rule rejection verbatim
	// (invalid coupon, insufficient stock).
	CodeBusiness Code = "BUSINESS_RULE_REJECTED"
	// CodeNotFound represents absence (no cart, no resource). Callers
	// usually convert it to nil rather than surfacing it.
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code should be treated by callers.
type Metadata struct {
	Retryable bool
	// UserMessage is shown when the backend supplied no human message.
	UserMessage string
	// Absence means the error represents "nothing there" rather than a failure.
	Absence bool
}

var metadataByCode = map[Code]Metadata{
	CodeTransport: {
		Retryable:   true,
		UserMessage: "no se pudo conectar con la tienda",
	},
	CodeDecode: {
		Retryable:   false,
		UserMessage: "respuesta inesperada del servidor",
	},
	CodeValidation: {
		Retryable:   false,
		UserMessage: "datos invalidos",
	},
	CodeBusiness: {
		Retryable:   false,
		UserMessage: "operacion rechazada",
	},
	CodeNotFound: {
		Retryable:   false,
		UserMessage: "no encontrado",
		Absence:     true,
	},
	CodeUnauthorized: {
		Retryable:   false,
		UserMessage: "sesion expirada",
	},
	CodeInternal: {
		Retryable:   true,
		UserMessage: "error interno",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// IsAbsence reports whether err represents absence rather than a failure.
func IsAbsence(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return MetadataFor(typed.Code()).Absence
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// UserMessage returns the message the UI should show: the carried message when
// present, otherwise the fallback for the code.
func (e *Error) UserMessage() string {
	if e == nil {
		return MetadataFor(CodeInternal).UserMessage
	}
	if e.message != "" {
		return e.message
	}
	return MetadataFor(e.code).UserMessage
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
