package request

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,min=1,max=4000"`
}
