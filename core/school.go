package core

import "time"

// School is a registered school record. Image holds the hosted URL returned
// by the image store, not the raw bytes.
type School struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	Image     string    `json:"image"`
	Email     string    `json:"email_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
