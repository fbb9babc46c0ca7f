package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_UsesCatalogDefaults(t *testing.T) {
	err := New(ErrCodeDatabaseError, "")
	if err.HTTPStatus != http.StatusInternalServerError || !err.Retryable {
		t.Errorf("got status=%d retryable=%v", err.HTTPStatus, err.Retryable)
	}
	if err.Message != catalog[ErrCodeDatabaseError].message {
		t.Errorf("message = %q", err.Message)
	}

	err = New(ErrCodeNotFound, "no such invoice")
	if err.Message != "no such invoice" || err.Retryable {
		t.Errorf("got %+v", err)
	}
}

func TestErrorCode_UnknownMapsTo500(t *testing.T) {
	code := ErrorCode("SOMETHING_ELSE")
	if code.Status() != http.StatusInternalServerError {
		t.Errorf("status = %d", code.Status())
	}
	if code.Retryable() {
		t.Error("unknown code should not be retryable")
	}
}

func TestCatalog_EveryCodeHasAMessage(t *testing.T) {
	for code, k := range catalog {
		if k.message == "" {
			t.Errorf("%s has no default message", code)
		}
		if k.status < 400 || k.status > 599 {
			t.Errorf("%s has status %d", code, k.status)
		}
	}
}

func TestConstructors(t *testing.T) {
	cause := stderrors.New("boom")
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"rate limited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"not found", NotFound("client", "7"), ErrCodeNotFound, http.StatusNotFound, false},
		{"duplicate email", DuplicateEmail(), ErrCodeDuplicateEmail, http.StatusConflict, false},
		{"invalid input", InvalidInput("email", "bad"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"validation", Validation("name is required"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"missing field", MissingField("name"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"unauthorized", Unauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized, false},
		{"forbidden", Forbidden(""), ErrCodeForbidden, http.StatusForbidden, false},
		{"bad credentials", AuthenticationFailed(), ErrCodeAuthenticationFailed, http.StatusUnauthorized, false},
		{"invalid token", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{"user not found at gate", UserNotFound(http.StatusUnauthorized), ErrCodeUserNotFound, http.StatusUnauthorized, false},
		{"user not found", UserNotFound(http.StatusNotFound), ErrCodeUserNotFound, http.StatusNotFound, false},
		{"internal", Internal(cause), ErrCodeInternal, http.StatusInternalServerError, false},
		{"database", DatabaseError(cause), ErrCodeDatabaseError, http.StatusInternalServerError, true},
		{"storage", StorageError("put", cause), ErrCodeStorageError, http.StatusBadGateway, true},
		{"unavailable", Unavailable(ErrCodeDatabaseError, "down"), ErrCodeDatabaseError, http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
			if tt.err.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestConstructors_Details(t *testing.T) {
	if d := NotFound("client", "7").Details; d["resource"] != "client" || d["id"] != "7" {
		t.Errorf("details = %v", d)
	}
	if _, ok := NotFound("user", "").Details["id"]; ok {
		t.Error("empty id should be omitted")
	}
	if _, ok := InvalidInput("", "bad").Details["field"]; ok {
		t.Error("empty field should be omitted")
	}
	if d := StorageError("get", nil).Details; d["operation"] != "get" {
		t.Errorf("details = %v", d)
	}
}

func TestAuthenticationFailed_DoesNotNameTheCause(t *testing.T) {
	msg := strings.ToLower(AuthenticationFailed().Message)
	for _, word := range []string{"email", "password", "user"} {
		if strings.Contains(msg, word) {
			t.Errorf("message %q mentions %q", msg, word)
		}
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := DatabaseError(cause)
	if !stderrors.Is(err, cause) {
		t.Error("cause should be reachable through errors.Is")
	}
	if !strings.Contains(err.Error(), "disk full") || !strings.HasPrefix(err.Error(), "DATABASE_ERROR: ") {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := InvalidToken().Error(); strings.Contains(got, "cause") {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := New(ErrCodeInvalidInput, "").WithDetail("a", 1).WithDetail("b", "x")
	if len(err.Details) != 2 || err.Details["a"] != 1 {
		t.Errorf("details = %v", err.Details)
	}
}

func TestToResponse(t *testing.T) {
	body := NotFound("invoice", "").ToResponse().Error
	if body.Code != ErrCodeNotFound || body.Retryable || body.Details["resource"] != "invoice" {
		t.Errorf("body = %+v", body)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	appErr := InvalidToken()
	if Wrap(appErr) != appErr {
		t.Error("AppError should pass through")
	}
	if Wrap(fmt.Errorf("decode: %w", appErr)) != appErr {
		t.Error("wrapped AppError should be unwrapped")
	}
	plain := stderrors.New("boom")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || !stderrors.Is(got, plain) {
		t.Errorf("got %+v", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", UserNotFound(http.StatusUnauthorized))
	if !HasCode(err, ErrCodeUserNotFound) {
		t.Error("expected USER_NOT_FOUND in chain")
	}
	if HasCode(err, ErrCodeNotFound) || HasCode(stderrors.New("x"), ErrCodeNotFound) {
		t.Error("unexpected match")
	}
}
