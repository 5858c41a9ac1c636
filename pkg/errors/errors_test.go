package errors

import (
	stdErrors "errors"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		retryable bool
		absence   bool
	}{
		{code: CodeTransport, retryable: true},
		{code: CodeDecode},
		{code: CodeValidation},
		{code: CodeBusiness},
		{code: CodeNotFound, absence: true},
		{code: CodeUnauthorized},
		{code: CodeInternal, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.Absence != tt.absence {
			t.Fatalf("code %s expected absence %v got %v", tt.code, tt.absence, meta.Absence)
		}
		if meta.UserMessage == "" {
			t.Fatalf("code %s has no user message", tt.code)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if !meta.Retryable {
		t.Fatalf("expected internal metadata for unknown code, got %+v", meta)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "falta cantidad")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "falta cantidad" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails([]string{"cantidad: es requerido"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("dial tcp: connection refused")
	wrapped := Wrap(CodeTransport, cause, "get cart")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeTransport {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestUserMessageFallsBackPerCode(t *testing.T) {
	withMessage := New(CodeBusiness, "cupon invalido")
	if withMessage.UserMessage() != "cupon invalido" {
		t.Fatalf("expected carried message, got %q", withMessage.UserMessage())
	}

	bare := New(CodeTransport, "")
	if bare.UserMessage() != MetadataFor(CodeTransport).UserMessage {
		t.Fatalf("expected fallback message, got %q", bare.UserMessage())
	}
}

func TestIsAbsence(t *testing.T) {
	if !IsAbsence(New(CodeNotFound, "no cart")) {
		t.Fatalf("not-found should be absence")
	}
	if IsAbsence(New(CodeTransport, "down")) {
		t.Fatalf("transport failure is not absence")
	}
	if IsAbsence(stdErrors.New("plain")) {
		t.Fatalf("untyped errors are not absence")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeUnauthorized, "token vencido")
	if got := As(err); got == nil || got.Code() != CodeUnauthorized {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}
