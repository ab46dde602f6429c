package outbox

import (
	"strings"
	"time"
)

// RetentionPeriod is how long a transfer record (and its media) is kept
// before the cleanup sweep purges it, regardless of transfer outcome.
const RetentionPeriod = 7 * 24 * time.Hour

// Kind identifies the media type of an artifact.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Origin records how an artifact entered the store.
type Origin string

const (
	OriginCaptured Origin = "captured"
	OriginImported Origin = "imported"
	OriginReceived Origin = "received"
)

// State is the queue-owned transfer state of an outbox entry. Only the
// transfer manager writes it once an entry exists.
type State string

const (
	StatePending  State = "pending"
	StateSending  State = "sending"
	StateSent     State = "sent"
	StateReceived State = "received"
	StateFailed   State = "failed"
)

// Phase is the caller-owned pipeline phase set while an artifact is still
// being prepared. It exists for progress display; the transfer manager
// never writes it.
type Phase string

const (
	PhaseCompressing Phase = "compressing"
	PhaseEncrypting  Phase = "encrypting"
	PhaseReady       Phase = "ready"
)

var allStates = []State{StatePending, StateSending, StateSent, StateReceived, StateFailed}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// AllStates returns the ordered list of known transfer states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a state admits no further automatic transitions.
func (s State) IsTerminal() bool {
	switch s {
	case StateSent, StateReceived, StateFailed:
		return true
	default:
		return false
	}
}

// Sender describes the remote party of a received artifact.
type Sender struct {
	Identity    string
	DisplayName string
}

// Artifact is a processed, persisted media object. ContentPath and (for
// photos) ThumbnailPath point at existing files before the record is
// created; a partially processed artifact never reaches the store.
type Artifact struct {
	ID                string
	Kind              Kind
	ContentPath       string
	ThumbnailPath     string
	ByteSize          int64
	Width             int
	Height            int
	DurationSeconds   float64
	Origin            Origin
	SenderIdentity    string
	SenderDisplayName string
	ConversationID    string
	CreatedAt         time.Time
}

// Entry is the transfer-tracking record layered over an artifact. It does
// not own the artifact's bytes, only its transfer state.
type Entry struct {
	ArtifactID      string
	ConversationID  string
	State           State
	Phase           Phase
	RetryCount      int
	LastAttemptAt   time.Time // zero if never attempted
	CreatedAt       time.Time
	ExpiresAt       time.Time
	EncryptionKey   []byte
	EncryptionNonce []byte
	ErrorMessage    string
	UpdatedAt       time.Time
}

// Expired reports whether the entry's retention window has passed.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// StatsSummary aggregates entry counts for status display.
type StatsSummary struct {
	Total    int
	Pending  int
	Sending  int
	Sent     int
	Received int
	Failed   int
}
