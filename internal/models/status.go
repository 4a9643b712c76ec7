package models

import (
	"fmt"
	"strings"
)

// RepairStatus is the closed set of states a repair can be in.
type RepairStatus string

const (
	StatusNew        RepairStatus = "nouveau"
	StatusDiagnostic RepairStatus = "diagnostic"
	StatusInRepair   RepairStatus = "en_reparation"
	StatusReady      RepairStatus = "pret_recup"
	StatusCollected  RepairStatus = "recupere"
	StatusCancelled  RepairStatus = "annule"
)

// RepairStatuses lists every accepted status, progress order first, cancelled last.
var RepairStatuses = []RepairStatus{
	StatusNew, StatusDiagnostic, StatusInRepair, StatusReady, StatusCollected, StatusCancelled,
}

// Valid reports whether s belongs to the closed status set.
func (s RepairStatus) Valid() bool {
	for _, v := range RepairStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ParseRepairStatus validates raw input. It never defaults: unknown values fail with ErrInvalidStatus.
func ParseRepairStatus(raw string) (RepairStatus, error) {
	s := RepairStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// PaymentStatus records whether a repair has been paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// SubscriptionStatus is the billing state of an establishment.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionTrial, SubscriptionActive, SubscriptionExpired, SubscriptionCancelled:
		return true
	}
	return false
}

// QuoteStatus is the lifecycle of a commercial offer.
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected, QuoteExpired:
		return true
	}
	return false
}
