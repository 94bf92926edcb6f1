package sessions

import "time"

// Event bus topics.
const (
	// TopicTerminated carries a TerminatedEvent once per session end.
	TopicTerminated = "session:terminated"
	// TopicNavigate carries the destination path as a string.
	TopicNavigate = "session:navigate"
)

// Reason records why a session ended.
type Reason string

const (
	ReasonLocalExpiry  Reason = "local_expiry"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonUserLogout   Reason = "user_logout"
)

// TerminatedEvent is published on TopicTerminated.
type TerminatedEvent struct {
	Reason     Reason
	Generation uint64
	At         time.Time
}
