package params

import (
	"encoding/json"
	"math/big"
)

// Equal reports whether two trees are deeply equal. Object key order is
// ignored; numbers compare by value, so json.Number("1.0") equals
// json.Number("1").
func Equal(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case *Object:
		bv, ok := b.(*Object)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case json.Number:
		bv, ok := b.(json.Number)
		return ok && numberEqual(av, bv)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

func numberEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	af, ok := new(big.Float).SetString(string(a))
	if !ok {
		return false
	}
	bf, ok := new(big.Float).SetString(string(b))
	if !ok {
		return false
	}
	return af.Cmp(bf) == 0
}
