package domain

import (
	"fmt"
	"time"
)

// Chatbot represents a deployable website chatbot owned by a tenant
type Chatbot struct {
	ID           string
	TenantID     string
	Name         string
	Instructions string // persona base prompt the knowledge block is spliced into
	Model        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewChatbot creates a new Chatbot instance
func NewChatbot(id, tenantID, name, instructions, model string, createdAt, updatedAt time.Time) *Chatbot {
	return &Chatbot{
		ID:           id,
		TenantID:     tenantID,
		Name:         name,
		Instructions: instructions,
		Model:        model,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// ValidateChatbot validates a Chatbot instance
func ValidateChatbot(c *Chatbot) error {
	if c == nil {
		return fmt.Errorf("chatbot cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chatbot ID is required")
	}

	if c.TenantID == "" {
		return fmt.Errorf("chatbot TenantID is required")
	}

	if c.Name == "" {
		return fmt.Errorf("chatbot Name is required")
	}

	return nil
}
