package forms

import "strings"

// SignupData holds the raw registration fields.
type SignupData struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,username"`
	Email     string `form:"email" validate:"useremail"`
	Password1 string `form:"password1" validate:"required,password"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// SignupForm registers a new user.
type SignupForm struct {
	Data   SignupData
	Errors FieldErrors
	bound  bool
}

// NewSignupForm returns an unbound signup form.
func NewSignupForm() *SignupForm {
	return &SignupForm{Errors: FieldErrors{}}
}

// Bind attaches submitted data.
func (f *SignupForm) Bind(data SignupData) *SignupForm {
	f.Data = data
	f.bound = true
	return f
}

// Validate checks field rules; username uniqueness is checked by the caller.
func (f *SignupForm) Validate() bool {
	if !f.bound {
		return false
	}
	f.Errors = FieldErrors{}
	f.Data.FirstName = strings.TrimSpace(f.Data.FirstName)
	f.Data.LastName = strings.TrimSpace(f.Data.LastName)
	f.Data.Username = strings.TrimSpace(f.Data.Username)
	f.Data.Email = strings.TrimSpace(f.Data.Email)
	validateInto(&f.Data, f.Errors)
	return len(f.Errors) == 0
}

// Context renders the form for templates. Passwords are never echoed back.
func (f *SignupForm) Context() *Context {
	return newContext(f.bound, f.Errors,
		&Field{Name: "first_name", Label: "Имя", Value: f.Data.FirstName},
		&Field{Name: "last_name", Label: "Фамилия", Value: f.Data.LastName},
		&Field{Name: "username", Label: "Имя пользователя", Required: true, Value: f.Data.Username},
		&Field{Name: "email", Label: "Адрес электронной почты", Value: f.Data.Email},
		&Field{Name: "password1", Label: "Пароль", Required: true, Value: ""},
		&Field{Name: "password2", Label: "Подтверждение пароля", Required: true, Value: ""},
	)
}

// LoginData holds the raw login fields.
type LoginData struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginForm authenticates an existing user.
type LoginForm struct {
	Data   LoginData
	Errors FieldErrors
	bound  bool
}

// NewLoginForm returns an unbound login form.
func NewLoginForm() *LoginForm {
	return &LoginForm{Errors: FieldErrors{}}
}

// Bind attaches submitted data.
func (f *LoginForm) Bind(data LoginData) *LoginForm {
	f.Data = data
	f.bound = true
	return f
}

// Validate checks that both fields are present.
func (f *LoginForm) Validate() bool {
	if !f.bound {
		return false
	}
	f.Errors = FieldErrors{}
	f.Data.Username = strings.TrimSpace(f.Data.Username)
	validateInto(&f.Data, f.Errors)
	return len(f.Errors) == 0
}

// Fail records a credentials mismatch.
func (f *LoginForm) Fail() {
	f.Errors.Add(NonFieldErrors, MsgLoginFailed)
}

// Context renders the form for templates.
func (f *LoginForm) Context() *Context {
	return newContext(f.bound, f.Errors,
		&Field{Name: "username", Label: "Имя пользователя", Required: true, Value: f.Data.Username},
		&Field{Name: "password", Label: "Пароль", Required: true, Value: ""},
	)
}
