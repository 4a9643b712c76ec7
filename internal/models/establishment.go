package models

import "time"

// DefaultTicketColor is used on tickets and the public page when an establishment has no accent color.
const DefaultTicketColor = "#2563eb"

// Establishment is a tenant: one repair shop.
type Establishment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owning user; one establishment per user.
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name          string `gorm:"size:255;not null" json:"name"`
	Phone         string `gorm:"size:50" json:"phone,omitempty"`
	Address       string `gorm:"size:500" json:"address,omitempty"`
	LogoURL       string `gorm:"size:500" json:"logo_url,omitempty"`
	TicketColor   string `gorm:"size:7" json:"ticket_color,omitempty"`
	FooterMessage string `gorm:"size:1000" json:"footer_message,omitempty"`

	SubscriptionStatus SubscriptionStatus `gorm:"size:20;not null;default:trial" json:"subscription_status"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time         `json:"subscription_ends_at,omitempty"`
}

// GetEstablishmentID implements policy.Tenanted.
func (e *Establishment) GetEstablishmentID() uint {
	return e.ID
}

// AccentColor returns the ticket color or DefaultTicketColor when unset.
func (e *Establishment) AccentColor() string {
	if e.TicketColor == "" {
		return DefaultTicketColor
	}
	return e.TicketColor
}

// SubscriptionActive reports whether the establishment may perform writes at instant now.
func (e *Establishment) SubscriptionActive(now time.Time) bool {
	switch e.SubscriptionStatus {
	case SubscriptionTrial:
		return e.TrialEndsAt != nil && now.Before(*e.TrialEndsAt)
	case SubscriptionActive:
		return e.SubscriptionEndsAt == nil || now.Before(*e.SubscriptionEndsAt)
	default:
		return false
	}
}
