package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Register creates an account. Username is optional; the profile falls back to the
// local part of the email when it is empty.
type Register struct {
	Username string `validate:"omitempty,max=50" json:"username"`
	Email    string `validate:"required,email"   json:"email"`
	Password string `validate:"required,min=8"   json:"password"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", r.Email).Str("username", r.Username).Str("password", "***")
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = "***"
	type R Register
	return json.Marshal(R(r))
}

type ColorMode struct {
	ColorMode string `validate:"required,oneof=light dark" json:"color_mode"`
}
