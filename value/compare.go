package value

import (
	"cmp"
	"strings"
)

// Compare is a three-way comparison returning -1, 0 or +1. Values of
// different kinds order by kind: null < bool < number < string < mapping.
// Within a kind: false < true, numeric order, byte-wise string order, and
// mappings by length, then entry by entry (key first, then value).
func Compare(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}

	switch a.kind {
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindNumber:
		return cmp.Compare(a.n, b.n)
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindMapping:
		if c := cmp.Compare(a.m.Len(), b.m.Len()); c != 0 {
			return c
		}
		bKeys := b.m.Keys()
		i := 0
		for key, item := range a.m.All() {
			if c := strings.Compare(key, bKeys[i]); c != 0 {
				return c
			}
			other, _ := b.m.Get(bKeys[i])
			if c := Compare(item, other); c != 0 {
				return c
			}
			i++
		}
	}
	return 0
}
