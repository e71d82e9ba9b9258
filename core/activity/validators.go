package activity

import (
	"encoding/json"
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

const nothingToUpdateTag = "nothingtoupdate"

var activityValidators = []core.Validator{
	{Tag: "activitytype", Text: "unknown activity type", Func: activityTypeValidation},
	{Tag: "imageposition", Text: "position must be one of left, center or right", Func: imagePositionValidation},
	{Tag: nothingToUpdateTag, Text: "one of name or published is required"},
}

// InitValidators registers the activity validation tags on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterValidators(validate, translator, activityValidators...)
	validate.RegisterStructValidation(updateActivityStructValidation, UpdateActivity{})
}

// Custom Validators

func activityTypeValidation(fl validator.FieldLevel) bool {
	switch t := fl.Field().Interface().(type) {
	case Type:
		return t.Valid()
	case string:
		return Type(t).Valid()
	}
	return false
}

func imagePositionValidation(fl validator.FieldLevel) bool {
	switch p := fl.Field().Interface().(type) {
	case ImagePosition:
		return p.Valid()
	case string:
		return ImagePosition(p).Valid()
	}
	return false
}

func updateActivityStructValidation(sl validator.StructLevel) {
	if ua, ok := sl.Current().Interface().(UpdateActivity); ok && ua.Name == nil && ua.Published == nil {
		sl.ReportError(ua.Name, "name", "Name", nothingToUpdateTag, "")
		sl.ReportError(ua.Published, "published", "Published", nothingToUpdateTag, "")
	}
}

// ValidatePayload runs the field rules of p, including the minimum item count of vocabulary lists.
// Quizzes must keep at least one question.
func ValidatePayload(validate *validator.Validate, p Payload) error {
	p = deref(p)
	if p == nil {
		return core.NewValidationError(errors.New("payload is required"))
	}
	if q, ok := p.(Quiz); ok && len(q.Questions) == 0 {
		return core.NewValidationError(ErrMinimumItems, core.FieldError{Field: "questions", Error: ErrMinimumItems.Error()})
	}
	return validate.Struct(p)
}

// DecodePayload unmarshals the JSON payload of an activity of type t.
func DecodePayload(t Type, data []byte) (Payload, error) {
	kind, err := Lookup(t)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(reflect.TypeOf(kind.New()))
	if err = json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, core.NewValidationError(errors.Wrapf(err, "decoding %s payload", t))
	}
	return ptr.Elem().Interface().(Payload), nil
}
