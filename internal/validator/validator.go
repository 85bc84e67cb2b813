// Package validator provides the field validation shared by the transaction
// dialog, staged receipt rows, and Gin's binding engine.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
	"pfa/internal/money"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// messages maps a failed tag to the message shown next to the field.
var messages = map[string]string{
	"required":        "Required",
	"required_if":     "Required",
	"positive_amount": "Must be > 0",
	"iso_date":        "Invalid date",
	"txn_type":        "Must be expense or income",
	"max":             "Too long",
	"min":             "Too short",
	"email":           "Invalid email",
	"oneof":           "Not an allowed value",
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		registerTags(validate)
	})
	return validate
}

// Register registers the custom tags with the Gin binding engine and makes
// it report fields by their JSON names.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonName)
		registerTags(v)
	}
}

func registerTags(v *validator.Validate) {
	_ = v.RegisterValidation("txn_type", validateTxnType)
	_ = v.RegisterValidation("iso_date", validateISODate)
	_ = v.RegisterValidation("positive_amount", validatePositiveAmount)
}

// Validate checks v and returns an ErrValidation AppError carrying one
// message per failing field, or nil.
func Validate(v any) error {
	fields := Fields(v, "")
	if len(fields) == 0 {
		return nil
	}
	return apperrors.Invalid(fields)
}

// Fields checks v and returns its field errors keyed by JSON name, each
// prefixed with prefix (e.g. "rows[2]."). Only the first failure per field
// is reported.
func Fields(v any, prefix string) apperrors.FieldErrors {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	fields := apperrors.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields[prefix+"_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		name := prefix + fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = Message(fe.Tag())
	}
	return fields
}

// BindError converts an error from Gin's ShouldBind* into an AppError.
// Failed binding tags become field errors; anything else is a malformed
// request.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	fields := apperrors.FieldErrors{}
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = Message(fe.Tag())
		}
	}
	return apperrors.Invalid(fields)
}

// Message returns the user-facing message for a failed tag.
func Message(tag string) string {
	if msg, ok := messages[tag]; ok {
		return msg
	}
	return "Invalid"
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func validateTxnType(fl validator.FieldLevel) bool {
	return models.TxnType(fl.Field().String()).Valid()
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

func validatePositiveAmount(fl validator.FieldLevel) bool {
	return money.IsPositive(fl.Field().String())
}
