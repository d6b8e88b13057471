package record

import (
	"fmt"
)

// CompareOp is a comparison predicate operator used by scan filters,
// join conditions, and having clauses.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// Compare evaluates a op b for two decoded column values of the same
// underlying kind (numeric, string, bool, or bytes). NULL (nil) never
// compares equal or ordered to anything, matching SQL NULL semantics.
func Compare(a, b any, op CompareOp) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}

	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return applyOp(af, bf, op), nil
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case OpEq:
			return as == bs, nil
		case OpNe:
			return as != bs, nil
		case OpLt:
			return as < bs, nil
		case OpLe:
			return as <= bs, nil
		case OpGt:
			return as > bs, nil
		case OpGe:
			return as >= bs, nil
		}
	}

	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch op {
		case OpEq:
			return ab == bb, nil
		case OpNe:
			return ab != bb, nil
		}
		return false, fmt.Errorf("record: ordering comparison unsupported for bool")
	}

	return false, fmt.Errorf("record: cannot compare %T with %T", a, b)
}

func applyOp(a, b float64, op CompareOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

// Equal reports whether two values are equal under the same relaxed
// numeric/string/bool comparison Compare uses. Used by hash join and
// distinct to confirm a hash-bucket match isn't a collision.
func Equal(a, b any) bool {
	ok, err := Compare(a, b, OpEq)
	return err == nil && ok
}

// HashKey produces a stable string fingerprint for v suitable for use as
// a Go map key, for hash join build-side indexing and distinct
// deduplication.
func HashKey(v any) string {
	if v == nil {
		return "\x00nil"
	}
	switch x := v.(type) {
	case []byte:
		return "b:" + string(x)
	default:
		return fmt.Sprintf("%T:%v", x, x)
	}
}
