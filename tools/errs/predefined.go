package errs

// Gateway failure taxonomy. Nothing here is fatal to the process: resolution
// failures surface as named wire events, stale references are no-ops, push
// failures are logged and dropped.
var (
	// resolution failures (target has no live session)
	ErrUserOffline = NewCodeError(1001, "user not available")

	// stale/unknown references (silent no-op at call sites)
	ErrUnknownSession = NewCodeError(1002, "unknown session")
	ErrUnknownMessage = NewCodeError(1003, "unknown message")
	ErrCallNotFound   = NewCodeError(1004, "call not found")

	// state machine guards
	ErrCallTerminal   = NewCodeError(1005, "call already terminal")
	ErrCallState      = NewCodeError(1006, "operation not allowed in current call state")
	ErrCallInProgress = NewCodeError(1007, "call already in progress")

	// notification bridge
	ErrPushNoToken = NewCodeError(1101, "no push token registered")
	ErrPushSend    = NewCodeError(1102, "push dispatch failed")

	// boundary validation
	ErrPayloadInvalid = NewCodeError(1201, "invalid event payload")
	ErrUnknownEvent   = NewCodeError(1202, "unsupported event")
)
