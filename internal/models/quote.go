package models

import "time"

// Quote is a commercial offer made to a client of an establishment.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EstablishmentID uint   `gorm:"not null;uniqueIndex:idx_quotes_establishment_number" json:"establishment_id"`
	ClientID        uint   `gorm:"index;not null" json:"client_id"`
	Client          Client `gorm:"foreignKey:ClientID" json:"-"`

	// Number is unique per establishment, e.g. DEV-2026-0001.
	Number    string      `gorm:"size:32;not null;uniqueIndex:idx_quotes_establishment_number" json:"number"`
	Total     float64     `gorm:"not null;default:0" json:"total"`
	IssueDate time.Time   `gorm:"not null" json:"issue_date"`
	ExpiresAt time.Time   `gorm:"not null" json:"expires_at"`
	Status    QuoteStatus `gorm:"size:20;not null" json:"status"`
	Notes     string      `gorm:"type:text" json:"notes,omitempty"`
}

// GetEstablishmentID implements policy.Tenanted.
func (q *Quote) GetEstablishmentID() uint {
	return q.EstablishmentID
}

// QuoteSequence is the last quote number issued by an establishment in a year.
// It only moves forward, so numbers of deleted quotes stay used.
type QuoteSequence struct {
	EstablishmentID uint `gorm:"primaryKey;autoIncrement:false"`
	Year            int  `gorm:"primaryKey;autoIncrement:false"`
	LastNumber      int  `gorm:"not null;default:0"`
}
