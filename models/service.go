package models

import "time"

// Service is a streaming provider the user has connected to their account.
type Service struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Active     bool       `json:"active"`
	AddedAt    *time.Time `json:"added_at,omitempty"`
	AccessTier AccessTier `json:"access,omitempty"`
}

// ServiceToggle is one entry of the batched toggle request.
type ServiceToggle struct {
	Code   string `json:"code"`
	Active bool   `json:"active"`
}
