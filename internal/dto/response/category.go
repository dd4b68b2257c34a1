package response

import "myvillage-api/internal/data/entity"

type CategoryResponse struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Icon     *string            `json:"icon"`
	ParentID *string            `json:"parentId"`
	Order    int                `json:"order"`
	IsActive bool               `json:"isActive"`
	Children []CategoryResponse `json:"children,omitempty"`
}

// CategoryToResponse converts c and, recursively, its children.
func CategoryToResponse(c *entity.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:       c.ID.String(),
		Name:     c.Name,
		Icon:     c.Icon,
		Order:    c.Order,
		IsActive: c.IsActive,
	}
	if c.ParentID != nil {
		parent := c.ParentID.String()
		resp.ParentID = &parent
	}
	for _, child := range c.Children {
		resp.Children = append(resp.Children, CategoryToResponse(child))
	}
	return resp
}
