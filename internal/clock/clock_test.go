package clock

import (
	"testing"
	"time"
)

func TestFixed_ReturnsUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	c := NewFixed(time.Date(2025, 6, 1, 9, 0, 0, 0, loc))
	if c.Now().Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", c.Now().Location())
	}
	if c.Now().Hour() != 8 {
		t.Fatalf("expected 08:00 UTC, got %v", c.Now())
	}
}

func TestManual_Advance(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c := NewManual(start)
	c.Advance(2 * time.Hour)
	if got := c.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}
