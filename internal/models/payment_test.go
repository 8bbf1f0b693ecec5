package models

import (
	"testing"
	"time"
)

func TestPaymentStatusGates(t *testing.T) {
	tests := []struct {
		status     PaymentStatus
		terminal   bool
		approvable bool
		deletable  bool
	}{
		{PaymentPending, false, true, true},
		{PaymentProcessing, false, true, true},
		{PaymentSuccess, false, true, false},
		{PaymentCompleted, false, true, false},
		{PaymentConfirmed, true, false, false},
		{PaymentFailed, false, false, true},
		{PaymentCancelled, false, false, true},
		{PaymentDeleted, true, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			p := Payment{PaymentStatus: tt.status}
			if got := p.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := p.IsApprovable(); got != tt.approvable {
				t.Errorf("IsApprovable() = %v, want %v", got, tt.approvable)
			}
			if got := p.IsDeletable(); got != tt.deletable {
				t.Errorf("IsDeletable() = %v, want %v", got, tt.deletable)
			}
		})
	}
}

func TestHasActiveLink(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name   string
		expiry *time.Time
		want   bool
	}{
		{"no link", nil, false},
		{"active", &future, true},
		{"elapsed", &past, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ServiceRequest{PaymentLinkExpiry: tt.expiry}
			if got := r.HasActiveLink(now); got != tt.want {
				t.Errorf("HasActiveLink() = %v, want %v", got, tt.want)
			}
		})
	}
}
