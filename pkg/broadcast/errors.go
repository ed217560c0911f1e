package broadcast

import "errors"

var (
	// ErrClosed is returned when publishing on a closed broadcaster.
	ErrClosed = errors.New("broadcast: broadcaster is closed")

	// ErrPublishFailed wraps transport or encoding failures during Publish.
	ErrPublishFailed = errors.New("broadcast: publish failed")
)
