package forms

// SignupForm carries the fields of a registration submission.
type SignupForm struct {
	Username string `validate:"required,min=3,max=150"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// BindSignupForm parses raw form values into a SignupForm.
func BindSignupForm(username, email, password string) (*SignupForm, Errors) {
	form := &SignupForm{Username: username, Email: email, Password: password}
	if errs := check(form); errs != nil {
		return nil, errs
	}
	return form, nil
}

// LoginForm carries the fields of a login submission.
type LoginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// BindLoginForm parses raw form values into a LoginForm.
func BindLoginForm(username, password string) (*LoginForm, Errors) {
	form := &LoginForm{Username: username, Password: password}
	if errs := check(form); errs != nil {
		return nil, errs
	}
	return form, nil
}
