package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseRepairStatus(t *testing.T) {
	for _, s := range RepairStatuses {
		got, err := ParseRepairStatus(string(s))
		if err != nil {
			t.Fatalf("ParseRepairStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseRepairStatus(%q) = %q", s, got)
		}
	}

	for _, raw := range []string{"", "NOUVEAU", "done", "en reparation"} {
		if _, err := ParseRepairStatus(raw); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseRepairStatus(%q) expected ErrInvalidStatus got %v", raw, err)
		}
	}
}

func TestInvalidStatusIsValidationError(t *testing.T) {
	_, err := ParseRepairStatus("bogus")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrInvalidStatus to wrap ErrValidation, got %v", err)
	}
	if !errors.Is(ErrInvalidCodeFormat, ErrValidation) {
		t.Fatalf("expected ErrInvalidCodeFormat to wrap ErrValidation")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(map[string]string{"item": "required", "price": "out_of_range"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected errors.Is ErrValidation")
	}
	if got, want := err.Error(), "validation_failed: item=required, price=out_of_range"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	var ve *ValidationError
	if !errors.As(error(err), &ve) || ve.Fields["item"] != "required" {
		t.Errorf("expected errors.As to expose fields")
	}
}

func TestEstablishment_AccentColor(t *testing.T) {
	e := &Establishment{}
	if got := e.AccentColor(); got != DefaultTicketColor {
		t.Errorf("AccentColor() = %q, want default", got)
	}
	e.TicketColor = "#ff0000"
	if got := e.AccentColor(); got != "#ff0000" {
		t.Errorf("AccentColor() = %q, want #ff0000", got)
	}
}

func TestEstablishment_SubscriptionActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		est  Establishment
		want bool
	}{
		{"trial running", Establishment{SubscriptionStatus: SubscriptionTrial, TrialEndsAt: &future}, true},
		{"trial over", Establishment{SubscriptionStatus: SubscriptionTrial, TrialEndsAt: &past}, false},
		{"trial without end", Establishment{SubscriptionStatus: SubscriptionTrial}, false},
		{"active open ended", Establishment{SubscriptionStatus: SubscriptionActive}, true},
		{"active until future", Establishment{SubscriptionStatus: SubscriptionActive, SubscriptionEndsAt: &future}, true},
		{"active lapsed", Establishment{SubscriptionStatus: SubscriptionActive, SubscriptionEndsAt: &past}, false},
		{"expired", Establishment{SubscriptionStatus: SubscriptionExpired, SubscriptionEndsAt: &future}, false},
		{"cancelled", Establishment{SubscriptionStatus: SubscriptionCancelled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.est.SubscriptionActive(now); got != tt.want {
				t.Errorf("SubscriptionActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTenantedModels(t *testing.T) {
	if (&Repair{EstablishmentID: 7}).GetEstablishmentID() != 7 {
		t.Error("Repair.GetEstablishmentID")
	}
	if (&Client{EstablishmentID: 8}).GetEstablishmentID() != 8 {
		t.Error("Client.GetEstablishmentID")
	}
	if (&Quote{EstablishmentID: 9}).GetEstablishmentID() != 9 {
		t.Error("Quote.GetEstablishmentID")
	}
	if (&Establishment{ID: 10}).GetEstablishmentID() != 10 {
		t.Error("Establishment.GetEstablishmentID")
	}
}
