package medialive

import (
	"fmt"

	"lumen-live/internal/models"
)

// Raw channel states accepted from the lifecycle notifier. The encoding
// service emits a much wider set (CREATING, STARTING, RECOVERING, ...); only
// the two settled states may reach the video store.
const (
	RawStateRunning = "RUNNING"
	RawStateStopped = "STOPPED"
)

// UnsupportedStateError reports a raw lifecycle state outside the accepted set.
type UnsupportedStateError struct {
	State string
}

func (e *UnsupportedStateError) Error() string {
	return fmt.Sprintf("Expected status are RUNNING and STOPPED. %s received", e.State)
}

// SupportedRawState reports whether the notifier state is one this service
// knows how to normalize.
func SupportedRawState(state string) bool {
	return state == RawStateRunning || state == RawStateStopped
}

// NormalizeState maps a raw channel state onto the application's live
// vocabulary. Anything outside the accepted set fails with the offending
// value; unknown states are never mapped on a best guess.
func NormalizeState(state string) (models.LiveState, error) {
	switch state {
	case RawStateRunning:
		return models.LiveStateLive, nil
	case RawStateStopped:
		return models.LiveStateStopped, nil
	default:
		return "", &UnsupportedStateError{State: state}
	}
}
