package completion

// State is the lifecycle position of a single turn.
//
//	Idle -> AwaitingFirstFragment -> Streaming* -> Done -> Committed
//	AwaitingFirstFragment | Streaming -> Failed
type State int

const (
	Idle State = iota
	AwaitingFirstFragment
	Streaming
	// Done means the stream ended normally and the reply awaits Commit.
	Done
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingFirstFragment:
		return "awaiting_first_fragment"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
