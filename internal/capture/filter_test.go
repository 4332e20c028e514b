package capture

import (
	"testing"
	"time"
)

func TestNewFilterDefaults(t *testing.T) {
	filter, err := NewFilter()
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	if filter.MaxSilenceGap != DefaultMaxSilenceGap {
		t.Errorf("Expected default max silence gap %v, got %v",
			DefaultMaxSilenceGap, filter.MaxSilenceGap)
	}

	if !filter.Permits(42) {
		t.Error("Default filter should permit any participant")
	}
}

func TestNewFilterOverrides(t *testing.T) {
	filter, err := NewFilter(
		WithMaxSilenceGap(time.Second),
		WithAllowedUsers(1, 2),
		WithDeniedUsers(3),
	)
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	if filter.MaxSilenceGap != time.Second {
		t.Errorf("Expected max silence gap 1s, got %v", filter.MaxSilenceGap)
	}

	tests := []struct {
		userID uint64
		want   bool
	}{
		{1, true},
		{2, true},
		{3, false},  // denied
		{99, false}, // not on the allow list
	}

	for _, tt := range tests {
		if got := filter.Permits(tt.userID); got != tt.want {
			t.Errorf("Permits(%d) = %v, want %v", tt.userID, got, tt.want)
		}
	}
}

func TestDenyWithoutAllowList(t *testing.T) {
	filter, err := NewFilter(WithDeniedUsers(7))
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	if filter.Permits(7) {
		t.Error("Denied participant should not be permitted")
	}

	if !filter.Permits(8) {
		t.Error("Unlisted participant should be permitted when no allow list is set")
	}
}

func TestValidateRejectsContradictions(t *testing.T) {
	if _, err := NewFilter(WithAllowedUsers(5), WithDeniedUsers(5)); err == nil {
		t.Error("Expected error for participant on both lists")
	}

	if _, err := NewFilter(WithMaxSilenceGap(-time.Second)); err == nil {
		t.Error("Expected error for negative silence gap")
	}
}
