package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/errors"
)

func init() { gin.SetMode(gin.TestMode) }

func fieldsOf(t *testing.T, err error) []FieldError {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s, want %s", appErr.Code, errors.ErrCodeInvalidInput)
	}
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", appErr.HTTPStatus)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("details.fields = %#v", appErr.Details["fields"])
	}
	return fields
}

func TestParseID(t *testing.T) {
	id, err := ParseID("id", "42")
	if err != nil || id != 42 {
		t.Errorf("ParseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc", "1.5"} {
		if _, err := ParseID("id", bad); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ParseID(%q) error = %v, want INVALID_INPUT", bad, err)
		}
	}
}

type signupInput struct {
	Name     string `json:"name" validate:"required,min=4,max=12"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStructValidateValid(t *testing.T) {
	err := Validate(signupInput{Name: "Andres", Email: "andres@x.com", Password: "secret-pass"})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateUsesJSONNames(t *testing.T) {
	fields := fieldsOf(t, Validate(signupInput{Name: "Ana", Email: "not-an-email"}))

	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	if got["name"] != "must be at least 4 characters" {
		t.Errorf("name message = %q", got["name"])
	}
	if got["email"] != "must be a valid email address" {
		t.Errorf("email message = %q", got["email"])
	}
	if got["password"] != "is required" {
		t.Errorf("password message = %q", got["password"])
	}
}

type invoiceInput struct {
	Description string      `json:"description" validate:"required"`
	Items       []itemInput `json:"items" validate:"min=1,dive"`
}

type itemInput struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

func TestStructValidateNested(t *testing.T) {
	fields := fieldsOf(t, Validate(invoiceInput{
		Description: "Office",
		Items:       []itemInput{{ProductID: 1, Quantity: 0}},
	}))
	if len(fields) != 1 || fields[0].Field != "items[0].quantity" || fields[0].Message != "must be at least 1" {
		t.Errorf("fields = %+v", fields)
	}

	fields = fieldsOf(t, Validate(invoiceInput{Description: "Office"}))
	if len(fields) != 1 || fields[0].Message != "must contain at least 1 item(s)" {
		t.Errorf("fields = %+v", fields)
	}
}

func bindContext(body string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBindJSON(t *testing.T) {
	var in signupInput
	if err := BindJSON(bindContext(`{"name":"Andres","email":"a@x.com","password":"12345678"}`), &in); err != nil {
		t.Fatalf("BindJSON() error = %v", err)
	}
	if in.Email != "a@x.com" {
		t.Errorf("Email = %q", in.Email)
	}

	err := BindJSON(bindContext(`{"name":`), &in)
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("malformed body error = %v, want INVALID_INPUT", err)
	}

	var empty signupInput
	fields := fieldsOf(t, BindJSON(bindContext(`{}`), &empty))
	if len(fields) != 3 {
		t.Errorf("fields = %+v, want 3", fields)
	}
}
