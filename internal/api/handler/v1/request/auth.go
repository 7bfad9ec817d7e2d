package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
)

// At least 8 characters with 1 letter and 1 digit. Lookaheads need
// regexp2; the stdlib engine does not support them.
const passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d).{8,}$`

var errInvalidPassword = errors.New("the password must be at least 8 characters and contain 1 letter and 1 number")

type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *AuthRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&req.Password, validation.Required),
	)
	if err != nil {
		return err
	}

	passwordExp := regexp2.MustCompile(passwordRegexPattern, regexp2.None)
	matched, err := passwordExp.MatchString(req.Password)
	if err != nil {
		return err
	}
	if !matched {
		return errInvalidPassword
	}

	return nil
}
