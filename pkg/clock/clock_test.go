package clock

import (
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := NewManual(start)

	c.Advance(5 * time.Minute)
	if got := c.Now(); !got.Equal(start.Add(5 * time.Minute)) {
		t.Fatalf("expected %v, got %v", start.Add(5*time.Minute), got)
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}
}

func TestFixedIsUTC(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	c := NewFixed(time.Date(2025, 1, 1, 17, 0, 0, 0, loc))
	if c.Now().Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", c.Now().Location())
	}
}
