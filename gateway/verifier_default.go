//go:build !blst

package gateway

// defaultShareVerifier selects the verifier used when Config.Verifier is
// unset. Without the blst build tag this is the simulated scheme.
func defaultShareVerifier() ShareVerifier {
	return SimShareVerifier{}
}
