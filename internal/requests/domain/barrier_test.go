package domain

import "testing"

func TestBarrier_SecondSetterCompletes(t *testing.T) {
	b := NewBarrier("client", "artisan")

	b, done := b.Set("client")
	if done {
		t.Fatal("first latch must not complete the barrier")
	}

	_, done = b.Set("artisan")
	if !done {
		t.Fatal("second latch must complete the barrier")
	}
}

func TestBarrier_OrderDoesNotMatter(t *testing.T) {
	b := NewBarrier("client", "artisan")

	b, _ = b.Set("artisan")
	_, done := b.Set("client")
	if !done {
		t.Fatal("completion must be commutative")
	}
}

func TestBarrier_RepeatSetNeverCompletesTwice(t *testing.T) {
	b := NewBarrier("client", "artisan")
	b, _ = b.Set("client")
	b, done := b.Set("artisan")
	if !done {
		t.Fatal("expected completion")
	}

	_, done = b.Set("artisan")
	if done {
		t.Fatal("an already-set latch must not re-fire the barrier")
	}
}

func TestBarrier_UnknownLatchIgnored(t *testing.T) {
	b := NewBarrier("client")
	_, done := b.Set("admin")
	if done {
		t.Fatal("unknown latch must not complete the barrier")
	}
	if b.IsSet("admin") {
		t.Fatal("unknown latch must not be recorded")
	}
}

func TestBarrier_EmptyNeverComplete(t *testing.T) {
	if NewBarrier().Complete() {
		t.Fatal("a barrier with no latches must not report complete")
	}
}
