package executor

// State is the state of an Attempt.
type State int

const (
	Idle State = iota
	AuthenticatingZk
	AuthenticatingWallet
	Submitted
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AuthenticatingZk:
		return "authenticating(zk)"
	case AuthenticatingWallet:
		return "authenticating(wallet)"
	case Submitted:
		return "submitted"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Confirmed or Failed.
func (s State) Terminal() bool { return s == Confirmed || s == Failed }
