package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	must(v.RegisterValidation("notblank", notBlank))
	must(v.RegisterValidation("letters", lettersOnly))
	must(v.RegisterValidation("phone9", nineDigitPhone))
	must(v.RegisterValidation("birthdate", birthDate))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func lettersOnly(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func nineDigitPhone(fl validator.FieldLevel) bool {
	return len(PhoneDigits(fl.Field().String())) == 9
}

func birthDate(fl validator.FieldLevel) bool {
	_, err := ParseBirthDate(fl.Field().String(), time.Now())
	return err == nil
}

// PhoneDigits drops every non-digit character.
func PhoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

var errBirthDate = errors.New("invalid birth date")

// ParseBirthDate reads a dd/mm/yyyy date, rejecting impossible days, years
// before 1900 and dates after now.
func ParseBirthDate(s string, now time.Time) (time.Time, error) {
	date, err := time.Parse("02/01/2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errBirthDate
	}
	if date.Year() < 1900 || date.After(now) {
		return time.Time{}, errBirthDate
	}
	return date, nil
}

// Validate checks v against its struct tags and returns one message per
// invalid field, keyed by JSON path. It returns nil when v is valid.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"": err.Error()}
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		if _, seen := fields[key]; !seen {
			fields[key] = message(fe)
		}
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank", "required_unless":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid id"
	case "letters":
		return "must contain only letters"
	case "phone9":
		return "must contain exactly 9 digits"
	case "birthdate":
		return "must be a valid past date in dd/mm/yyyy format"
	}
	return "is invalid"
}
