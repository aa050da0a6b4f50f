package util

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	trans        ut.Translator
)

func initValidator() {
	validate = validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
}

// ValidateStruct runs the struct tags of s and joins the english translations of every
// failed field into one error.
func ValidateStruct(s interface{}) error {
	validateOnce.Do(initValidator)
	if err := validate.Struct(s); err != nil {
		msgs := []string{}
		for _, e := range TranslateError(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("validation error: %v", msgs)
	}
	return nil
}

// TranslateError converts validator field errors into readable english errors.
func TranslateError(err error) []error {
	validateOnce.Do(initValidator)
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []error{err}
	}
	out := make([]error, 0, len(errs))
	for _, e := range errs {
		out = append(out, errors.New(e.Translate(trans)))
	}
	return out
}
