package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/somo/core"
)

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	PictureURL string    `json:"picture_url,omitempty"`
	LastLogin  time.Time `json:"last_login"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Login is a successful sign-in at the external provider, as reported by the
// web session layer.
type Login struct {
	UID        string `json:"uid" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name"`
	PictureURL string `json:"picture_url"`
}

func (l *Login) Validate(validate *validator.Validate) error {
	l.UID = core.CleanString(l.UID)
	l.Email = core.CleanString(l.Email, true /* lower */)
	l.Name = core.CleanString(l.Name)
	return validate.Struct(l)
}
