package probe

// StatusPolicy decides which HTTP status codes count as UP. Keeping it a
// standalone predicate makes the up/down boundary testable and swappable.
type StatusPolicy func(code int) bool

// AcceptRange treats codes in [lo, hi] as UP.
func AcceptRange(lo, hi int) StatusPolicy {
	return func(code int) bool { return code >= lo && code <= hi }
}

// DefaultPolicy accepts 2xx and 3xx: a reachable site that redirects is
// still up. 4xx/5xx count as DOWN.
func DefaultPolicy() StatusPolicy {
	return AcceptRange(200, 399)
}
