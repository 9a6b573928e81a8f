package model

import (
	"testing"
	"time"
)

func TestReservationStatus_Valid(t *testing.T) {
	valid := []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusExpired}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	for _, s := range []ReservationStatus{"", "UNKNOWN", "pending"} {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestReservationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    ReservationStatus
		to      ReservationStatus
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusExpired, false},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusExpired, StatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestReservationStatus_IsTerminal(t *testing.T) {
	terminal := map[ReservationStatus]bool{
		StatusPending:   false,
		StatusConfirmed: false,
		StatusCancelled: true,
		StatusCompleted: true,
		StatusExpired:   true,
	}
	for s, want := range terminal {
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s: expected terminal=%v, got %v", s, want, got)
		}
	}
}

func TestReservation_ExpiredBy(t *testing.T) {
	created := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	tests := []struct {
		name    string
		status  ReservationStatus
		now     time.Time
		expired bool
	}{
		{"pending within window", StatusPending, created.Add(29 * time.Minute), false},
		{"pending at window boundary", StatusPending, created.Add(30 * time.Minute), false},
		{"pending past window", StatusPending, created.Add(31 * time.Minute), true},
		{"confirmed never expires", StatusConfirmed, created.Add(2 * time.Hour), false},
		{"cancelled never expires", StatusCancelled, created.Add(2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reservation{Status: tt.status, CreatedAt: created}
			if got := r.ExpiredBy(tt.now, window); got != tt.expired {
				t.Errorf("expected %v, got %v", tt.expired, got)
			}
		})
	}
}

func TestReservation_CancellableAt(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	tests := []struct {
		name   string
		status ReservationStatus
		now    time.Time
		want   bool
	}{
		{"pending well before deadline", StatusPending, start.Add(-2 * time.Hour), true},
		{"confirmed just before deadline", StatusConfirmed, start.Add(-window).Add(-time.Second), true},
		{"exactly at deadline", StatusConfirmed, start.Add(-window), false},
		{"inside window", StatusPending, start.Add(-30 * time.Minute), false},
		{"after start", StatusConfirmed, start.Add(time.Minute), false},
		{"cancelled is not cancellable", StatusCancelled, start.Add(-2 * time.Hour), false},
		{"completed is not cancellable", StatusCompleted, start.Add(-2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reservation{Status: tt.status, StartTime: start}
			if got := r.CancellableAt(tt.now, window); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReservation_InProgressAt(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	r := &Reservation{StartTime: start, EndTime: end}

	if r.InProgressAt(start.Add(-time.Second)) {
		t.Error("before start should not be in progress")
	}
	if !r.InProgressAt(start) {
		t.Error("exactly at start should be in progress")
	}
	if !r.InProgressAt(start.Add(30 * time.Minute)) {
		t.Error("mid-window should be in progress")
	}
	if !r.InProgressAt(end) {
		t.Error("exactly at end should be in progress")
	}
	if r.InProgressAt(end.Add(time.Second)) {
		t.Error("after end should not be in progress")
	}
}

func TestBlockingStatuses(t *testing.T) {
	blocking := BlockingStatuses()
	if len(blocking) != 2 {
		t.Fatalf("expected 2 blocking statuses, got %d", len(blocking))
	}
	if blocking[0] != StatusPending || blocking[1] != StatusConfirmed {
		t.Errorf("expected [PENDING CONFIRMED], got %v", blocking)
	}
}

func TestSlotLabel(t *testing.T) {
	tests := []struct {
		n     int
		label string
	}{
		{1, "001"},
		{7, "007"},
		{42, "042"},
		{100, "100"},
		{9999, "9999"},
	}
	for _, tt := range tests {
		if got := SlotLabel(tt.n); got != tt.label {
			t.Errorf("SlotLabel(%d): expected %q, got %q", tt.n, tt.label, got)
		}
	}
}

func TestLabelNumber(t *testing.T) {
	n, err := LabelNumber("007")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}

	if _, err := LabelNumber("A1"); err == nil {
		t.Error("expected error for non-numeric label")
	}
}
