package session

// Event identifies a session transition.
type Event int

const (
	// EventLogin fires after a successful explicit Login. Identity may have changed.
	EventLogin Event = iota + 1
	// EventRefresh fires after credentials were renewed for the same identity.
	EventRefresh
	// EventUserUpdated fires after UpdateUser or MergeUser.
	EventUserUpdated
	// EventLogout fires whenever the session is cleared.
	EventLogout
)

// String returns the event name used in logs.
func (e Event) String() string {
	switch e {
	case EventLogin:
		return "login"
	case EventRefresh:
		return "refresh"
	case EventUserUpdated:
		return "user_updated"
	case EventLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// Listener receives session transitions. It is called synchronously after the
// store lock is released, with a snapshot of the new state.
type Listener func(Event, Session)
