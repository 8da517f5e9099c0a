package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidationError signale une entrée refusée avant tout accès aux données.
// Les handlers la traduisent en 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation indique si err est une erreur de validation d'entrée.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateEmail retourne une erreur pour les e-mails invalides.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Message: "email obligatoire"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Message: "email invalide"}
	}
	return nil
}

// ValidatePassword vérifie les exigences minimales du mot de passe.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Message: "le mot de passe doit contenir au moins 8 caractères"}
	}
	return nil
}

// RequireString garantit une chaîne non vide.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Message: field + " obligatoire"}
	}
	return nil
}
