package model

// Note is the single free-text note kept per owner.
type Note struct {
	OwnerID string `json:"ownerId,omitempty"`
	Content string `json:"content"`
}
