// Package validator wraps go-playground/validator with english messages,
// support for guregu/null fields and the rules blob requests need.
package validator

import (
	"database/sql/driver"
	"fmt"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
	"github.com/guregu/null/v6"

	"github.com/ArubikU/blobcraft/internal/model"
)

var (
	once     sync.Once
	instance *CustomValidator
)

type CustomValidator struct {
	trans     ut.Translator
	validator *validator.Validate
}

func New() (*CustomValidator, error) {
	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(fieldName)

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	validate.RegisterCustomTypeFunc(ParseNullable,
		null.Bool{},
		null.Float{},
		null.Int32{},
		null.Int64{},
		null.String{},
		null.Time{},
		uuid.NullUUID{},
	)

	if err := register(validate, trans, "filename", isFilename, "{0} must be a plain file name"); err != nil {
		return nil, err
	}
	if err := register(validate, trans, "tag", isTag, "{0} must not contain a comma"); err != nil {
		return nil, err
	}

	return &CustomValidator{trans: trans, validator: validate}, nil
}

func register(validate *validator.Validate, trans ut.Translator, tag string, fn validator.Func, message string) error {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("failed to register %s: %w", tag, err)
	}
	return validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			text, _ := ut.T(tag, fe.Field())
			return text
		},
	)
}

// fieldName reports fields under the name clients send them with.
func fieldName(field reflect.StructField) string {
	for _, key := range []string{"json", "query", "form", "param"} {
		name, _, _ := strings.Cut(field.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// isFilename rejects names that carry a directory component.
func isFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return true
	}
	return !strings.ContainsAny(name, `/\`) && name != "." && name != ".." && path.Base(name) == name
}

// isTag rejects the separator tags are stored and sent with.
func isTag(fl validator.FieldLevel) bool {
	return !strings.Contains(fl.Field().String(), ",")
}

// Validate checks i and reports every failing field in one ErrValidation.
func (cv *CustomValidator) Validate(i any) error {
	err := cv.validator.Struct(i)
	valErr, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	text, mErr := sonic.MarshalString(valErr.Translate(cv.trans))
	if mErr != nil {
		return valErr
	}
	return model.ErrValidation.Fmt(text)
}

type Nullable interface {
	driver.Valuer
}

// typed nil, so omitnil treats an invalid null.* value as absent
// https://github.com/go-playground/validator/issues/1209#issuecomment-1892359649
var nilValue *struct{}

// ParseNullable implements validator.CustomTypeFunc for null.* types.
func ParseNullable(field reflect.Value) any {
	nullable, ok := field.Interface().(Nullable)
	if !ok {
		return nil
	}
	val, err := nullable.Value()
	if err != nil {
		return nil
	}
	if val == nil {
		return nilValue
	}
	return val
}

// Validate checks i with a shared validator.
func Validate(i any) error {
	once.Do(func() {
		var err error
		instance, err = New()
		if err != nil {
			panic(fmt.Sprintf("failed to create validator: %v", err))
		}
	})
	return instance.Validate(i)
}
