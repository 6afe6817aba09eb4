package validator

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
}

type structValidator struct {
	v *validator.Validate
}

// New returns a validator with the portal's custom tags registered.
func New() Validator {
	v := validator.New()
	mustRegister(v)
	return &structValidator{v: v}
}

func (s *structValidator) Validate(obj interface{}) error {
	if err := s.v.Struct(obj); err != nil {
		return Describe(err)
	}
	return nil
}

// RegisterGin installs the custom tags on gin's binding engine.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	mustRegister(v)
	return nil
}

func mustRegister(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return IsClock(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// IsClock reports whether s is a zero-padded 24-hour HH:MM time.
func IsClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// IsDate reports whether s is a valid zero-padded YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Describe flattens validator errors into a single readable message.
func Describe(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, describeField(e))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func describeField(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "clock":
		return fmt.Sprintf("%s must be a time in HH:MM format", e.Field())
	case "date":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", e.Field(), e.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
