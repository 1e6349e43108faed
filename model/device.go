// model/device.go
package model

import "time"

type Device struct {
	ID          string     `json:"id"`
	Hostname    string     `json:"hostname"`
	Description string     `json:"description,omitempty"`
	OU          string     `json:"ou"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
}

type InsertDevice struct {
	Hostname    string `json:"hostname" binding:"required"`
	Description string `json:"description"`
	OU          string `json:"ou" binding:"required"`
}

type DevicePatch struct {
	Description *string `json:"description"`
	OU          *string `json:"ou"`
}

func (p DevicePatch) Apply(d *Device) {
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.OU != nil {
		d.OU = *p.OU
	}
}
