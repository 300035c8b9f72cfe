package ids

import "testing"

func TestGenerateMonotonicAndUnique(t *testing.T) {
	seen := make(map[int64]bool, 10000)
	prev := int64(0)
	for i := 0; i < 10000; i++ {
		id := Generate()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		prev = id
	}
}

func TestGenerateStringIsDecimal(t *testing.T) {
	s := GenerateString()
	if s == "" {
		t.Fatal("empty id")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("non-decimal id %q", s)
		}
	}
}
