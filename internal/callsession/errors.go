package callsession

import "errors"

var (
	// ErrSignalingUnavailable means the event channel was not connected
	// when the call attempt started. Fatal to the attempt; no retry.
	ErrSignalingUnavailable = errors.New("signaling channel not connected")

	// ErrInitiateFailed means the initiate emit itself was refused by
	// the channel.
	ErrInitiateFailed = errors.New("call initiate emit failed")

	// ErrAlreadyStarted means Start was called twice on one orchestrator.
	ErrAlreadyStarted = errors.New("call session already started")

	// ErrTerminated means the session has already been torn down.
	ErrTerminated = errors.New("call session terminated")
)
