package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type SendCoinRequest struct {
	ToUser string `json:"toUser"`
	Amount int    `json:"amount"`
}

func (req *SendCoinRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ToUser, validation.Required),
		validation.Field(&req.Amount, validation.Required, validation.Min(1)),
	)
}
