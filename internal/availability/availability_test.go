package availability

import "testing"

func TestComputeEmptyPackage(t *testing.T) {
	s := Compute(10, 0)
	if s.Capacity != 10 || s.Booked != 0 || s.Available != 10 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.FullyBooked {
		t.Fatalf("empty package must not be fully booked")
	}
}

func TestComputeExactlyFull(t *testing.T) {
	s := Compute(10, 10)
	if s.Available != 0 {
		t.Fatalf("available = %d, want 0", s.Available)
	}
	if !s.FullyBooked {
		t.Fatalf("package at capacity must be fully booked")
	}
}

func TestComputeOversoldClampsToZero(t *testing.T) {
	// Legacy data can hold more booked seats than capacity.
	s := Compute(5, 8)
	if s.Available != 0 {
		t.Fatalf("available = %d, want 0", s.Available)
	}
	if !s.FullyBooked {
		t.Fatalf("oversold departure must report fully booked")
	}
	if s.Booked != 8 {
		t.Fatalf("booked must report the real sum, got %d", s.Booked)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	a := Compute(7, 3)
	b := Compute(7, 3)
	if a != b {
		t.Fatalf("identical inputs produced %+v and %+v", a, b)
	}
}

func TestCanFit(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		booked   int
		adults   int
		want     bool
	}{
		{"fits exactly", 10, 7, 3, true},
		{"one too many", 10, 7, 4, false},
		{"fully booked", 10, 10, 1, false},
		{"zero adults never fits", 10, 0, 0, false},
		{"negative adults never fits", 10, 0, -2, false},
		{"last seat", 5, 4, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.capacity, tt.booked).CanFit(tt.adults); got != tt.want {
				t.Fatalf("CanFit(%d) with cap=%d booked=%d: got %v want %v",
					tt.adults, tt.capacity, tt.booked, got, tt.want)
			}
		})
	}
}
