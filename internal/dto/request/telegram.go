package request

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TelegramID accepts the id as a JSON string or number.
type TelegramID string

func (t *TelegramID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TelegramID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("telegramId must be a string or number: %w", err)
	}
	*t = TelegramID(n.String())
	return nil
}

type BotVerifyTokenRequest struct {
	VerifyToken string `json:"verifyToken" validate:"required"`
}

type BotConfirmRequest struct {
	VerifyToken string     `json:"verifyToken" validate:"required"`
	TelegramID  TelegramID `json:"telegramId" validate:"required"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=100"`
}

type WebAppConfirmRequest struct {
	VerifyToken string `json:"verifyToken" validate:"required"`
	InitData    string `json:"initData" validate:"required"`
}
