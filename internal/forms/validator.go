// Package forms binds and validates submitted form data.
//
// Struct rules use a go-playground/validator singleton; errors are collected
// per field so views can re-render the form next to the submitted values.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"yatube/internal/validation"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance.
// Field names in errors come from the `form` tag.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		registerRule("username", validation.ValidateUsername)
		registerRule("password", validation.ValidatePassword)
		registerRule("useremail", validation.ValidateEmail)
		registerRule("slug", validation.ValidateSlug)
	})
	return validate
}

func registerRule(tag string, check func(string) error) {
	_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return check(fl.Field().String()) == nil
	})
}

// Messages shown next to fields, matching the site's Russian locale.
const (
	MsgRequired      = "Обязательное поле."
	MsgInvalidChoice = "Выберите корректный вариант. Вашего варианта нет среди допустимых значений."
	MsgInvalidImage  = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."
	MsgImageTooLarge = "Размер файла не должен превышать %d МБ."
	MsgEmptyFile     = "Отправленный файл пуст."
	MsgMismatch      = "Введенные пароли не совпадают."
	MsgLoginFailed   = "Пожалуйста, введите правильные имя пользователя и пароль."
	MsgUsernameTaken = "Пользователь с таким именем уже существует."
)

var errorMessageTemplates = map[string]string{
	"required":  MsgRequired,
	"numeric":   MsgInvalidChoice,
	"username":  "Введите правильное имя пользователя. Оно может содержать только буквы, цифры и знаки @/./+/-/_.",
	"password":  "Пароль должен содержать не менее 8 символов, не быть слишком простым и не состоять только из цифр.",
	"useremail": "Введите правильный адрес электронной почты.",
	"slug":      "Значение должно состоять только из латинских букв, цифр, знаков подчеркивания или дефиса.",
	"eqfield":   MsgMismatch,
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	if msg, ok := errorMessageTemplates[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("Убедитесь, что это значение содержит не более %s символов.", fe.Param())
	case "min":
		return fmt.Sprintf("Убедитесь, что это значение содержит не менее %s символов.", fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// validateInto runs struct validation and records every failure in errs.
func validateInto(s interface{}, errs FieldErrors) {
	err := GetValidator().Struct(s)
	if err == nil {
		return
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errs.Add(NonFieldErrors, err.Error())
		return
	}
	for _, fe := range validationErrs {
		errs.Add(fe.Field(), translateError(fe))
	}
}
