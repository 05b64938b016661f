package headerchain

import "errors"

// Sentinel errors for proof construction.
// Callers may use errors.Is to check for specific failure types.
var (
	ErrUnsatisfied        = errors.New("constraints not satisfied")  // header violates a rule
	ErrMissingPredecessor = errors.New("missing predecessor proof")  // step called without a prior proof
	ErrInvalidPredecessor = errors.New("predecessor proof rejected") // embedded verification failed
	ErrHeaderShape        = errors.New("header does not match params")
	ErrUnknownRule        = errors.New("unknown rule")
)
