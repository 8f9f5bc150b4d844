//go:build !linux

package device

// DefaultRouteInterface is not implemented off Linux; selection falls back to
// interface classification.
func DefaultRouteInterface() (string, error) {
	return "", nil
}
