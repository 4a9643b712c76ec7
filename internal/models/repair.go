package models

import "time"

// Repair is a tracked repair job. Code is its public lookup key.
type Repair struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EstablishmentID uint          `gorm:"index;not null" json:"establishment_id"`
	Establishment   Establishment `gorm:"foreignKey:EstablishmentID" json:"-"`
	ClientID        *uint         `gorm:"index" json:"client_id,omitempty"`
	Client          *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// Code is unique across all establishments and stored uppercase.
	Code        string       `gorm:"uniqueIndex;size:16;not null" json:"code"`
	Item        string       `gorm:"size:255;not null" json:"item"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Status      RepairStatus `gorm:"size:20;not null;index" json:"status"`

	Price         *float64      `json:"price,omitempty"`
	PaymentStatus PaymentStatus `gorm:"size:10;not null;default:unpaid" json:"payment_status"`
	PaidAmount    *float64      `json:"paid_amount,omitempty"`
}

// GetEstablishmentID implements policy.Tenanted.
func (r *Repair) GetEstablishmentID() uint {
	return r.EstablishmentID
}

// Paid reports whether a payment has been recorded.
func (r *Repair) Paid() bool {
	return r.PaymentStatus == PaymentPaid
}
