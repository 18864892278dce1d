package throttle

import (
	"testing"
	"time"
)

func TestFirstOkIsImmediate(t *testing.T) {
	t.Parallel()
	tt := New(time.Hour)
	if !tt.Ok() {
		t.Fatalf("first Ok() = false, want true")
	}
}

func TestOkFalseWithinInterval(t *testing.T) {
	t.Parallel()
	tt := New(time.Hour)
	tt.Ok()
	if tt.Ok() {
		t.Fatalf("second Ok() within interval = true, want false")
	}
}

func TestOkTrueAfterInterval(t *testing.T) {
	t.Parallel()
	tt := New(10 * time.Millisecond)
	tt.Ok()
	time.Sleep(20 * time.Millisecond)
	if !tt.Ok() {
		t.Fatalf("Ok() after interval = false, want true")
	}
}
