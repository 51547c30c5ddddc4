package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/ideaspaper/rq/pkg/errors"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("config: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks the configuration against its declared tags.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError("config", err.Error())
	}

	if len(verrors) == 1 {
		return errors.NewValidationErrorWithValue(verrors[0].Field(), valueString(verrors[0]), verrors[0].Translate(translator))
	}

	msgs := make([]string, len(verrors))
	for i, verror := range verrors {
		msgs[i] = verror.Translate(translator)
	}
	return &errors.ValidationError{Message: strings.Join(msgs, "; ")}
}

func valueString(fe validator.FieldError) string {
	if s, ok := fe.Value().(string); ok {
		return s
	}
	return ""
}
