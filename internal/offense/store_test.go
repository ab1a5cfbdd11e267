package offense

import (
	"context"
	"testing"
	"time"
)

func TestBanDuration(t *testing.T) {
	tests := []struct {
		count int64
		want  time.Duration
	}{
		{3, Ban15Min},
		{4, Ban1Hour},
		{5, Ban24Hour},
		{10, Ban24Hour},
	}

	for _, tt := range tests {
		if got := banDuration(tt.count); got != tt.want {
			t.Errorf("banDuration(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestRecord_Escalation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// First two deletions: counted, no ban.
	for i := 1; i <= 2; i++ {
		count, banFor, shouldBan, err := s.Record(ctx, 9009, 1)
		if err != nil {
			t.Fatalf("Record() error: %v", err)
		}
		if count != int64(i) {
			t.Errorf("count = %d, want %d", count, i)
		}
		if shouldBan || banFor != 0 {
			t.Errorf("offense %d requested ban (%v)", i, banFor)
		}
	}

	// Third deletion crosses the threshold.
	count, banFor, shouldBan, err := s.Record(ctx, 9009, 1)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if count != 3 || !shouldBan || banFor != Ban15Min {
		t.Errorf("third offense: count=%d shouldBan=%v banFor=%v, want 3/true/%v",
			count, shouldBan, banFor, Ban15Min)
	}

	// Fourth escalates the duration.
	_, banFor, shouldBan, err = s.Record(ctx, 9009, 1)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if !shouldBan || banFor != Ban1Hour {
		t.Errorf("fourth offense: shouldBan=%v banFor=%v, want true/%v", shouldBan, banFor, Ban1Hour)
	}
}

func TestRecord_PerChatCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, _, _, err := s.Record(ctx, 9009, 2); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	// Same user in a different chat starts from zero.
	count, err := s.Count(ctx, 9010, 2)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 0 {
		t.Errorf("count in other chat = %d, want 0", count)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Record(ctx, 9009, 3)
	if err := s.Reset(ctx, 9009, 3); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	count, err := s.Count(ctx, 9009, 3)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 0 {
		t.Errorf("count after reset = %d, want 0", count)
	}
}
