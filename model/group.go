// model/group.go
package model

import "time"

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type InsertGroup struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type GroupPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (p GroupPatch) Apply(g *Group) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
}
