package util

import "testing"

func TestRemoveAdjacentDuplicates(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{}},
		{"no dupes", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"adjacent dupes", []string{"a", "a", "b", "b", "b", "c"}, []string{"a", "b", "c"}},
		{"non-adjacent dupes survive", []string{"a", "b", "a"}, []string{"a", "b", "a"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := RemoveAdjacentDuplicates(c.in)
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("got %v, want %v", got, c.want)
				}
			}
		})
	}
}

func TestHasLoop(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want bool
	}{
		{"empty", nil, false},
		{"no repeats", []string{"1", "2", "3"}, false},
		{"adjacent repeat", []string{"1", "1"}, true},
		{"non-adjacent repeat", []string{"1", "2", "1"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := HasLoop(c.in); got != c.want {
				t.Errorf("HasLoop(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestFloat64sMeanVariance(t *testing.T) {
	d := Float64s{2, 4, 6}
	if got := d.Sum(); got != 12 {
		t.Errorf("Sum() = %v, want 12", got)
	}
	if got := d.Mean(); got != 4 {
		t.Errorf("Mean() = %v, want 4", got)
	}
	if got := d.Variance(); got != 8.0/3.0 {
		t.Errorf("Variance() = %v, want %v", got, 8.0/3.0)
	}

	var empty Float64s
	if got := empty.Mean(); got != 0 {
		t.Errorf("Mean() on empty = %v, want 0", got)
	}
	if got := empty.Variance(); got != 0 {
		t.Errorf("Variance() on empty = %v, want 0", got)
	}
}

func TestFileExists(t *testing.T) {
	if FileExists("/no/such/path/hopefully") {
		t.Error("FileExists returned true for a path that should not exist")
	}
	dir := t.TempDir()
	w, f := NewBufioWriter(dir + "/sentinel.txt")
	w.Flush()
	f.Close()
	if !FileExists(dir + "/sentinel.txt") {
		t.Error("FileExists returned false for a file just created")
	}
}
