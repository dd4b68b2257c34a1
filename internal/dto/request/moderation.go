package request

type ModerateRequest struct {
	Action string  `json:"action" validate:"required,oneof=approve reject ban"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

type BanUserRequest struct {
	Reason       string `json:"reason" validate:"required,max=1000"`
	DurationDays *int   `json:"durationDays,omitempty" validate:"omitempty,min=1,max=3650"`
}
