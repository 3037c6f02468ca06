package engine

import "testing"

func TestArenaAlloc(t *testing.T) {
	a, err := NewArena(1024)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	if a.Size() != 1024 || a.Used() != 0 {
		t.Fatalf("fresh arena size=%d used=%d", a.Size(), a.Used())
	}

	b1, err := a.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(b1) != 10 {
		t.Fatalf("len(b1) = %d", len(b1))
	}

	// Second allocation starts on an aligned offset.
	b2, err := a.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(b2) != 16 {
		t.Fatalf("len(b2) = %d", len(b2))
	}
	if a.Used() != 32 {
		t.Errorf("used = %d, want 32 (10 rounded up to 16, plus 16)", a.Used())
	}
}

func TestArenaExhaustion(t *testing.T) {
	a, err := NewArena(64)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	if _, err := a.Alloc(48); err != nil {
		t.Fatalf("Alloc(48): %v", err)
	}
	if _, err := a.Alloc(32); err == nil {
		t.Fatal("allocation past capacity succeeded")
	}

	a.Reset()
	if a.Used() != 0 {
		t.Fatalf("used after reset = %d", a.Used())
	}
	if _, err := a.Alloc(64); err != nil {
		t.Fatalf("Alloc after reset: %v", err)
	}
}

func TestArenaRejectsBadSizes(t *testing.T) {
	if _, err := NewArena(0); err == nil {
		t.Error("zero-size arena accepted")
	}
	if _, err := NewArena(-1); err == nil {
		t.Error("negative-size arena accepted")
	}

	a, _ := NewArena(16)
	if _, err := a.Alloc(0); err == nil {
		t.Error("zero-size allocation accepted")
	}
}

func TestAllocInt8(t *testing.T) {
	a, _ := NewArena(64)
	s, err := a.AllocInt8(27)
	if err != nil {
		t.Fatalf("AllocInt8: %v", err)
	}
	if len(s) != 27 {
		t.Fatalf("len = %d", len(s))
	}
	for i := range s {
		s[i] = int8(i - 128)
	}
	if s[0] != -128 || s[26] != -102 {
		t.Errorf("int8 view holds %d..%d", s[0], s[26])
	}
}
