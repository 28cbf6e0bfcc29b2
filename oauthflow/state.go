package oauthflow

// FlowState is where an attempt currently is.
type FlowState int32

const (
	StateIdle FlowState = iota
	StateAwaitingConsent
	StateExchangingCode
	StateFetchingProfile
	StateComplete
	StateError
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConsent:
		return "awaiting_consent"
	case StateExchangingCode:
		return "exchanging_code"
	case StateFetchingProfile:
		return "fetching_profile"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen.
func (s FlowState) Terminal() bool {
	return s == StateComplete || s == StateError
}
