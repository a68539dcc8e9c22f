package sorting_test

import (
	"testing"

	"github.com/tailored-agentic-units/dotstore/sorting"
	"github.com/tailored-agentic-units/dotstore/value"
)

func record(score any, name string) value.Value {
	return value.MustFromAny(map[string]any{
		"meta": map[string]any{"score": score},
		"name": name,
	})
}

func TestKeySorter_SortDescending(t *testing.T) {
	records := value.NewMapping()
	records.Set("low", record(1, "low"))
	records.Set("high", record(10, "high"))
	records.Set("mid", record(5, "mid"))

	sorted := sorting.NewKeySorter("meta", "score").SortDescending(records)

	want := []string{"high", "mid", "low"}
	got := sorted.Keys()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if input := records.Keys(); input[0] != "low" {
		t.Errorf("input reordered, first key = %q", input[0])
	}
}

func TestKeySorter_StableTies(t *testing.T) {
	records := value.NewMapping()
	records.Set("first", record(3, "a"))
	records.Set("top", record(9, "b"))
	records.Set("second", record(3, "c"))
	records.Set("third", record(3, "d"))

	got := sorting.NewKeySorter("meta", "score").SortDescending(records).Keys()

	want := []string{"top", "first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys() = %v, want %v", got, want)
			break
		}
	}
}

func TestKeySorter_MissingKeyComparesAsNull(t *testing.T) {
	records := value.NewMapping()
	records.Set("none", value.MustFromAny(map[string]any{"name": "none"}))
	records.Set("some", record(0, "some"))
	records.Set("scalar", value.String("not a record"))

	got := sorting.NewKeySorter("meta", "score").SortDescending(records).Keys()

	if got[0] != "some" {
		t.Errorf("Keys() = %v, want the scored record first", got)
	}
}

func TestKeySorter_NoKeys(t *testing.T) {
	in := []value.Value{value.Int(2), value.String("b"), value.Null(), value.Int(7), value.Bool(true)}

	got := sorting.NewKeySorter().SortSliceDescending(in)

	want := []value.Value{value.String("b"), value.Int(7), value.Int(2), value.Bool(true), value.Null()}
	for i := range want {
		if !value.Equal(got[i], want[i]) {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if !value.Equal(in[0], value.Int(2)) {
		t.Error("input slice was reordered")
	}
}

func TestKeySorter_Compare(t *testing.T) {
	s := sorting.NewKeySorter("meta", "score")

	tests := []struct {
		name string
		a, b value.Value
		want int
	}{
		{"less", record(1, "a"), record(2, "b"), -1},
		{"equal", record(2, "a"), record(2, "b"), 0},
		{"greater", record(3, "a"), record(2, "b"), 1},
		{"strings", record("b", "a"), record("a", "b"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}
