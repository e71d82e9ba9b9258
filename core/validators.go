package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator is a custom validation tag with its english message.
// The message may use {0} for the field name and {1} for the tag parameter.
type Validator struct {
	Tag  string
	Text string
	Func validator.Func // nil: only the message is overridden
}

var globalValidators = []Validator{
	{Tag: "notblank", Text: "this field cannot be blank", Func: notBlankValidation},
	{Tag: "required", Text: "this field is required"},
	{Tag: "min", Text: "{0} needs at least {1} item(s)"},
	{Tag: "oneof", Text: "must be one of: {1}"},
	{Tag: "url", Text: "must be a valid URL"},
}

// NewTranslator returns the english translator used for validation errors.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	RegisterValidators(validate, translator, globalValidators...)
}

// RegisterValidators registers each validator and its message, replacing any default message for the tag.
func RegisterValidators(validate *validator.Validate, translator ut.Translator, validators ...Validator) {
	for _, v := range validators {
		if v.Func != nil {
			_ = validate.RegisterValidation(v.Tag, v.Func)
		}
		registerTranslation(validate, translator, v.Tag, v.Text)
	}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}
