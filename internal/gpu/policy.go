package gpu

import "errors"

// Outcome is the recovery action for a frame-loop device error.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeSkipRecreate: flag swapchain recreation, skip the rest of the
	// iteration, retry next time.
	OutcomeSkipRecreate
	// OutcomeLogReset: log the error, discard the pending chain, continue.
	// A dropped frame beats termination.
	OutcomeLogReset
	OutcomeFatal
)

// AcquireOutcome classifies an image-acquisition error. Stale surfaces are
// recoverable; anything else means the device or surface is gone.
func AcquireOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrStaleSurface):
		return OutcomeSkipRecreate
	default:
		return OutcomeFatal
	}
}

// SubmitOutcome classifies a submission or presentation error.
func SubmitOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrStaleSurface):
		return OutcomeSkipRecreate
	default:
		return OutcomeLogReset
	}
}
