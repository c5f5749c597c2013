package question

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/evaldocente/backend/core"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation("questiontype", func(fl validator.FieldLevel) bool {
		return IsValidType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, "questiontype", "{0} must be one of texto, calificacion, seleccion_unica, seleccion_multiple or booleano")
}
