package models

import "time"

// Client is a customer of an establishment.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// EstablishmentID never changes after creation.
	EstablishmentID uint `gorm:"index;not null" json:"establishment_id"`

	Name  string `gorm:"size:255;not null" json:"name"`
	Phone string `gorm:"size:50" json:"phone,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`
}

// GetEstablishmentID implements policy.Tenanted.
func (c *Client) GetEstablishmentID() uint {
	return c.EstablishmentID
}
