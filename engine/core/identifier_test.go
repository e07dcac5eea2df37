package core

import "testing"

func TestIdentifiersRecycleSlots(t *testing.T) {
	ids := NewIdentifiers(4)
	a := ids.Acquire("a")
	b := ids.Acquire("b")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("unexpected ids %d %d", a, b)
	}
	if err := ids.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := ids.Release(a); err == nil {
		t.Error("double release should fail")
	}
	c := ids.Acquire("c")
	if slot, _ := splitIdentifier(c); slot != a {
		t.Errorf("Acquire after release took slot %d, want recycled %d", slot, a)
	}
	if owner, ok := ids.Owner(c); !ok || owner != "c" {
		t.Errorf("Owner(%d) = %v, %v", c, owner, ok)
	}
	if ids.InUse() != 2 {
		t.Errorf("InUse = %d, want 2", ids.InUse())
	}
	if err := ids.Release(0); err == nil {
		t.Error("releasing the reserved id should fail")
	}
}

func TestIdentifiersReleasedIDStaysDead(t *testing.T) {
	ids := NewIdentifiers(1)
	a := ids.Acquire("a")
	if err := ids.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	c := ids.Acquire("c")
	if c == a {
		t.Fatalf("released id %d was handed out again", a)
	}
	if owner, ok := ids.Owner(a); ok {
		t.Errorf("Owner(%d) = %v after release", a, owner)
	}
	if err := ids.Release(a); err == nil {
		t.Error("releasing a retired id should fail")
	}
	if owner, ok := ids.Owner(c); !ok || owner != "c" {
		t.Errorf("Owner(%d) = %v, %v", c, owner, ok)
	}
}
