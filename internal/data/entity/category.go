package entity

import (
	"github.com/google/uuid"
)

type Category struct {
	Base
	Name     string     `db:"name"`
	Icon     *string    `db:"icon"`
	ParentID *uuid.UUID `db:"parent_id"`
	Order    int        `db:"sort_order"`
	IsActive bool       `db:"is_active"`

	Children []*Category `db:"-"`
}
