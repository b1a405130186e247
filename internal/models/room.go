package models

import "time"

type Room struct {
	ID           int64     `yaml:"id" json:"id"`
	TenantID     int64     `yaml:"tenant_id" json:"tenant_id"`
	Name         string    `yaml:"name" json:"name"`
	IsActive     bool      `yaml:"is_active" json:"is_active"`
	MinNights    int       `yaml:"min_nights" json:"min_nights"`
	CheckInTime  string    `yaml:"check_in_time" json:"check_in_time"`
	CheckOutTime string    `yaml:"check_out_time" json:"check_out_time"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at" json:"updated_at"`
}
