// Package dto provides form inputs and template view models for the HTML pages.
package dto

import (
	"net/http"
	"strings"
)

// LoginForm is the body of POST /login.
type LoginForm struct {
	Username string
	Password string
}

// SignupForm is the body of POST /signup.
type SignupForm struct {
	Username string
	Password string
}

// AddCarForm is the body of POST /admin/cars/add.
type AddCarForm struct {
	Name     string
	ImageURL string
}

// FormValues echoes non-secret fields back into a re-rendered form.
type FormValues struct {
	Username string
	Name     string
	ImageURL string
}

// ParseLoginForm reads a login form.
func ParseLoginForm(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}, nil
}

// ParseSignupForm reads a signup form.
func ParseSignupForm(r *http.Request) (SignupForm, error) {
	if err := r.ParseForm(); err != nil {
		return SignupForm{}, err
	}
	return SignupForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}, nil
}

// ParseAddCarForm reads the admin add-car form.
func ParseAddCarForm(r *http.Request) (AddCarForm, error) {
	if err := r.ParseForm(); err != nil {
		return AddCarForm{}, err
	}
	return AddCarForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		ImageURL: strings.TrimSpace(r.PostFormValue("image")),
	}, nil
}
