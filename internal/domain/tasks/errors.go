package tasks

import "errors"

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrJobIDRequired  = errors.New("job id is required")
	ErrProofRequired  = errors.New("job proof is required")

	// ErrTaskIDMissing means the upstream accepted the submission but its
	// response carried no task identifier at any known key. The record is
	// NOT created in that case; a null reconciliation key would break the
	// uniqueness invariant.
	ErrTaskIDMissing = errors.New("submission accepted upstream but task identifier missing from response")
)
