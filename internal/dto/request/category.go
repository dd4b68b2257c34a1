package request

type CategoryRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Icon     *string `json:"icon,omitempty" validate:"omitempty,max=200"`
	ParentID *string `json:"parentId,omitempty" validate:"omitempty,uuid"`
	Order    int     `json:"order" validate:"gte=0"`
}

type CategoryUpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Icon     *string `json:"icon,omitempty" validate:"omitempty,max=200"`
	ParentID *string `json:"parentId,omitempty" validate:"omitempty,uuid"`
	// ClearParent moves the category to the root.
	ClearParent bool  `json:"clearParent,omitempty"`
	Order       *int  `json:"order,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool `json:"isActive,omitempty"`
}
