package crawler

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
)

// Session is the ephemeral state of one scan run. It is passed by value to
// subscribers; nothing outside the crawler mutates it. Counters only ever
// increase within a run.
type Session struct {
	State           State
	CurrentKeyword  string
	VideosProcessed int
	UniqueChannels  int
	Message         string
}

// Notifier receives a session snapshot on every state or counter change.
// UI layers subscribe through this instead of polling shared globals.
type Notifier func(Session)
