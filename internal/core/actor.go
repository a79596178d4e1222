package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidActor is returned when the acting user is missing or malformed.
var ErrInvalidActor = errors.New("invalid actor")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Actor identifies who triggered an import. It is passed explicitly to every
// write so stored records can be attributed (created_by / updated_by).
type Actor struct {
	ID    string `json:"id" validate:"required,max=128"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Validate checks the actor fields.
func (a Actor) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidActor, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidActor, strings.Join(msgs, ", "))
}
