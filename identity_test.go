package instrument

import "testing"

func TestIdentityOf(t *testing.T) {
	d1 := NewDict(nil)
	d2 := NewDict(nil)
	m := map[string]int{}

	if IdentityOf(d1) != IdentityOf(d1) {
		t.Fatalf("identity must be stable for the same pointer")
	}
	if IdentityOf(d1) == IdentityOf(d2) {
		t.Fatalf("distinct pointers must have distinct identities")
	}
	if IdentityOf(m).IsZero() || !IdentityOf(m).Same(m) {
		t.Fatalf("maps carry an identity")
	}

	for _, v := range []any{nil, 42, "s", struct{}{}, valueImpl{}, func() {}, (*Dict)(nil)} {
		if !IdentityOf(v).IsZero() {
			t.Fatalf("expected no identity for %T", v)
		}
	}
	if (Identity{}).Same(nil) {
		t.Fatalf("the zero identity matches nothing")
	}
	if IdentityOf(d1).String() == (Identity{}).String() {
		t.Fatalf("expected distinct string forms")
	}
}

func TestDict(t *testing.T) {
	var zero Dict
	if _, ok := zero.Lookup("x"); ok {
		t.Fatalf("zero dict is empty")
	}
	zero.Store("b", 2)
	zero.Store("a", 1)
	zero.Store(3, "three")
	if zero.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", zero.Len())
	}
	keys := zero.Keys()
	if len(keys) != 3 || keys[0] != "3" || keys[1] != "a" || keys[2] != "b" {
		t.Fatalf("unexpected keys %v", keys)
	}
	snapshot := zero.Snapshot()
	snapshot["a"] = 100
	if v, _ := zero.Lookup("a"); v != 1 {
		t.Fatalf("snapshot must be a copy")
	}
	zero.Delete("a")
	if _, ok := zero.Lookup("a"); ok {
		t.Fatalf("expected a to be deleted")
	}

	var nilDict *Dict
	nilDict.Store("a", 1)
	nilDict.Delete("a")
	if _, ok := nilDict.Lookup("a"); ok {
		t.Fatalf("nil dict must stay empty")
	}
	if nilDict.Len() != 0 || nilDict.Keys() != nil || len(nilDict.Snapshot()) != 0 {
		t.Fatalf("nil dict helpers must be nil-safe")
	}
}
