package enforcer

import "errors"

// ErrAlreadyRunning is returned when a run is triggered while another run
// is still in progress. The trigger is rejected, never queued.
var ErrAlreadyRunning = errors.New("enforcement run already in progress")
