package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/kbukum/invoicer/errors"
)

// FieldError is one entry of details.fields in an INVALID_INPUT response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var structs = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
})

// Validate checks s against its `validate` tags. Field names in the
// result follow the json tags, nested ones as "items[0].quantity".
func Validate(s any) error {
	err := structs().Struct(s)
	if err == nil {
		return nil
	}
	var failed validator.ValidationErrors
	if !stderrors.As(err, &failed) {
		return errors.Validation("validation failed").WithCause(err)
	}
	fields := make([]FieldError, len(failed))
	for i, fe := range failed {
		fields[i] = FieldError{Field: fieldPath(fe), Message: describe(fe)}
	}
	return invalid(fields)
}

// BindJSON decodes the request body into dst and validates it. A body
// that is not JSON and a body that fails its tags are both INVALID_INPUT.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var failed validator.ValidationErrors
		if !stderrors.As(err, &failed) {
			return errors.InvalidInput("body", "request body must be valid JSON").WithCause(err)
		}
	}
	return Validate(dst)
}

// ParseID reads a positive integer path parameter.
func ParseID(field, value string) (int64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, errors.InvalidInput(field, field+" is required")
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidInput(field, field+" must be a positive integer")
	}
	return id, nil
}

func invalid(fields []FieldError) *errors.AppError {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

// messages renders a failed tag. %s is the tag parameter.
var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"gt":       "must be greater than %s",
	"gte":      "must be at least %s",
	"url":      "must be a valid URL",
	"oneof":    "must be one of: %s",
}

func describe(fe validator.FieldError) string {
	kind := fe.Kind()
	numeric := kind >= reflect.Int && kind <= reflect.Float64
	switch fe.Tag() {
	case "min":
		switch {
		case numeric:
			return "must be at least " + fe.Param()
		case kind == reflect.Slice:
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if numeric {
			return "must be at most " + fe.Param()
		}
		return "must be at most " + fe.Param() + " characters"
	}
	if msg, ok := messages[fe.Tag()]; ok {
		if strings.Contains(msg, "%s") {
			return fmt.Sprintf(msg, fe.Param())
		}
		return msg
	}
	return "is invalid"
}
