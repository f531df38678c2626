package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTransitionInvalide transition de statut refusée
var ErrTransitionInvalide = errors.New("transition de statut non autorisée")

// ErrAccesRefuse opération refusée à l'utilisateur courant
var ErrAccesRefuse = errors.New("accès refusé")

// ValidationError champs requis manquants ou invalides
type ValidationError struct {
	Champs []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation échouée: %s", strings.Join(e.Champs, ", "))
}

func newValidationError(champs ...string) error {
	return &ValidationError{Champs: champs}
}

// IsValidation teste si l'erreur est une erreur de validation
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
