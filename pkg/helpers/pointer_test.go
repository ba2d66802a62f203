package helpers

import "testing"

func TestValueOr(t *testing.T) {
	if got := ValueOr[int](nil, 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if got := ValueOr(Ptr(0), 7); got != 0 {
		t.Fatalf("expected explicit 0, got %d", got)
	}
}
