package auth

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

const minPasswordLen = 6

// fieldErrors maps a form field to the message shown under it.
type fieldErrors map[string]string

func validateCredentials(email, password string) fieldErrors {
	errs := fieldErrors{}
	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "El correo electrónico es requerido"
	case !emailPattern.MatchString(email):
		errs["email"] = "El correo electrónico no es válido"
	}
	switch {
	case password == "":
		errs["password"] = "La contraseña es requerida"
	case len(password) < minPasswordLen:
		errs["password"] = "La contraseña debe tener al menos 6 caracteres"
	}
	return errs
}

func validateSignup(name, email, password string) fieldErrors {
	errs := validateCredentials(email, password)
	if strings.TrimSpace(name) == "" {
		errs["nombre"] = "El nombre es requerido"
	}
	return errs
}
