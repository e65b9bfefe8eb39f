package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"accountapp/internal/core/domain"
	"accountapp/internal/core/model/response"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	Validator.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]

		if name == "-" || name == "" {
			return field.Name
		}

		return name
	})

	registerPolicyRules()
	addCustomTranslations()
}

// registerPolicyRules exposes the account policy as validator tags so that
// request payloads fail with the same rules the core enforces.
func registerPolicyRules() {
	must(Validator.RegisterValidation("credtoken", func(fl validator.FieldLevel) bool {
		return domain.ValidateCredentialToken(fl.Field().String()) == nil
	}))

	must(Validator.RegisterValidation("letters", func(fl validator.FieldLevel) bool {
		return domain.ValidateName(fl.Field().String()) == nil
	}))
}

func addCustomTranslations() {
	translate("credtoken", "{0} may contain only latin letters and digits")
	translate("letters", "{0} may contain only letters")
	translate("required", "{0} is required")
}

func translate(tag, text string) {
	must(Validator.RegisterTranslation(tag, Translator, func(ut ut.Translator) error {
		return ut.Add(tag, text, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fe.Field())
		return t
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func FormatValidationErrors(err error) []response.ValidationError {
	var result []response.ValidationError

	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			result = append(result, response.ValidationError{
				Field:   fieldError.Field(),
				Message: fieldError.Translate(Translator),
			})
		}
	}

	return result
}
