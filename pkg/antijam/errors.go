package antijam

import "errors"

var (
	// ErrWindowSizeTooSmall indicates window_size_packets was below the enforced minimum of 1.
	ErrWindowSizeTooSmall = errors.New("antijam: window_size_packets must be >= 1")

	// ErrWindowDurationTooSmall indicates window_duration_ms was below the enforced minimum of 1.
	ErrWindowDurationTooSmall = errors.New("antijam: window_duration_ms must be >= 1")

	// ErrConsecutiveWindowsTooSmall indicates consecutive_windows_to_jam was below the enforced minimum of 1.
	ErrConsecutiveWindowsTooSmall = errors.New("antijam: consecutive_windows_to_jam must be >= 1")

	// ErrMinRecoIntervalTooSmall indicates min_time_between_reco_ms was below the enforced minimum of 1.
	ErrMinRecoIntervalTooSmall = errors.New("antijam: min_time_between_reco_ms must be >= 1")

	// ErrCapacityIncrease indicates a Configure call tried to grow window_size_packets
	// past the ring buffer allocated at construction. Per spec §9 this is rejected
	// rather than risked, since the original firmware's unchecked growth would
	// overflow the preallocated ring.
	ErrCapacityIncrease = errors.New("antijam: window_size_packets may only be reduced, not increased; construct a new Detector with a larger max capacity instead")
)
