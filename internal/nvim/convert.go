package nvim

// Decoded notification arguments arrive as any-typed values whose concrete
// numeric type depends on the transport's decoder. These helpers normalize
// the common shapes.

// AsInt converts a decoded numeric argument to int64.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsString converts a decoded argument to string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsBool converts a decoded argument to bool. Backend booleans sometimes
// arrive as 0/1 integers depending on the emitting side.
func AsBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		return b != 0, true
	case int:
		return b != 0, true
	case float64:
		return b != 0, true
	default:
		return false, false
	}
}
