package keycode

import "testing"

func TestEncodeStable(t *testing.T) {
	c, err := New("Sensor salt xyz", 6)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, err := c.Encode(42)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := c.Encode(42)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a != b {
		t.Errorf("same id must encode identically: %q vs %q", a, b)
	}
	if len(a) < 6 {
		t.Errorf("key %q shorter than min length", a)
	}
}

func TestEncodeDistinctIDs(t *testing.T) {
	c, err := New("Sensor salt xyz", 6)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	seen := make(map[string]int64)
	for id := int64(1); id <= 200; id++ {
		key, err := c.Encode(id)
		if err != nil {
			t.Fatalf("Encode(%d): %v", id, err)
		}
		if prev, ok := seen[key]; ok {
			t.Fatalf("key collision: ids %d and %d both map to %q", prev, id, key)
		}
		seen[key] = id
	}
}

func TestSaltsProduceDisjointKeys(t *testing.T) {
	sensors, err := New("Sensor salt xyz", 6)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	groups, err := New("Group salt abc", 6)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sk, _ := sensors.Encode(1)
	gk, _ := groups.Encode(1)
	if sk == gk {
		t.Errorf("different salts produced the same key %q", sk)
	}
}
