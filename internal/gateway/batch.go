package gateway

import (
	"encoding/json"
	"fmt"
)

// outcome is the per-item result of a batch operation. key is the textual
// form of the requested value; id is set only when the value parsed as a
// message number.
type outcome[T any] struct {
	key   string
	raw   any
	id    int
	value T
	err   error
}

// runBatch routes each distinct requested value through op, producing exactly
// one outcome per value in first-occurrence order. Duplicates are processed
// once. Values that are not integers in [1, max] get an error outcome without
// op ever being invoked, and a failure on one item never aborts the rest.
func runBatch[T any](ids []any, max int, op func(id int) (T, error)) []outcome[T] {
	seen := make(map[string]struct{}, len(ids))
	results := make([]outcome[T], 0, len(ids))

	for _, raw := range ids {
		key := fmt.Sprintf("%v", raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out := outcome[T]{key: key, raw: raw}
		id, ok := asMessageID(raw)
		if !ok || id < 1 || id > max {
			out.err = fmt.Errorf("invalid or out-of-range ID (%s): max ID %d", key, max)
			results = append(results, out)
			continue
		}
		out.id = id
		out.value, out.err = op(id)
		results = append(results, out)
	}
	return results
}

// asMessageID coerces a decoded JSON value to a message number. JSON numbers
// arrive as float64; only integral values qualify.
func asMessageID(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
