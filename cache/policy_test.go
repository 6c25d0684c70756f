package cache

import (
	"errors"
	"testing"
	"time"
)

func TestPolicy_DefaultTTL(t *testing.T) {
	p := Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     10 * time.Minute,
	}

	got := p.EffectiveTTL(0)
	if got != 5*time.Minute {
		t.Errorf("EffectiveTTL(0) = %v, want %v", got, 5*time.Minute)
	}
}

func TestPolicy_OverrideTTL(t *testing.T) {
	p := Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     10 * time.Minute,
	}

	got := p.EffectiveTTL(3 * time.Minute)
	if got != 3*time.Minute {
		t.Errorf("EffectiveTTL(3m) = %v, want %v", got, 3*time.Minute)
	}
}

func TestPolicy_MaxTTLClamping(t *testing.T) {
	p := Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     10 * time.Minute,
	}

	got := p.EffectiveTTL(15 * time.Minute)
	if got != 10*time.Minute {
		t.Errorf("EffectiveTTL(15m) = %v, want %v (clamped to MaxTTL)", got, 10*time.Minute)
	}
}

func TestPolicy_NegativeTTLUsesDefault(t *testing.T) {
	p := DefaultPolicy()
	if got := p.EffectiveTTL(-time.Second); got != p.DefaultTTL {
		t.Errorf("EffectiveTTL(-1s) = %v, want %v", got, p.DefaultTTL)
	}
}

func TestPolicy_NoMaxTTL(t *testing.T) {
	p := DefaultPolicy()
	if got := p.EffectiveTTL(24 * time.Hour); got != 24*time.Hour {
		t.Errorf("EffectiveTTL(24h) = %v, want 24h with no MaxTTL", got)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.DefaultTTL != 60*time.Second {
		t.Errorf("DefaultTTL = %v, want 60s", p.DefaultTTL)
	}
	if p.MaxTTL != 0 {
		t.Errorf("MaxTTL = %v, want 0", p.MaxTTL)
	}
	if p.SweepInterval != time.Second {
		t.Errorf("SweepInterval = %v, want 1s", p.SweepInterval)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("DefaultPolicy().Validate() = %v", err)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr error
	}{
		{"zero default", Policy{}, ErrInvalidDefaultTTL},
		{"negative default", Policy{DefaultTTL: -time.Second}, ErrInvalidDefaultTTL},
		{"max below default", Policy{DefaultTTL: time.Minute, MaxTTL: time.Second}, ErrInvalidMaxTTL},
		{"negative sweep", Policy{DefaultTTL: time.Minute, SweepInterval: -1}, ErrInvalidSweep},
		{"lazy only", Policy{DefaultTTL: time.Minute}, nil},
		{"full", Policy{DefaultTTL: time.Minute, MaxTTL: time.Hour, SweepInterval: time.Second}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.policy.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
