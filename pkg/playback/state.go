// ABOUTME: Playback session state machine
// ABOUTME: Defines states and the allowed transitions between them
package playback

// State is the playback session state.
type State int

const (
	// StateIdle means a sequence may be loaded but nothing is playing.
	StateIdle State = iota
	// StateLoading means a chunk's media is being fetched.
	StateLoading
	// StatePlaying means the current chunk is audible.
	StatePlaying
	// StatePaused means playback is halted but resumable in place.
	StatePaused
	// StateComplete means the final chunk finished. Terminal until a new
	// load or seek restarts the session.
	StateComplete
)

var stateNames = [...]string{"idle", "loading", "playing", "paused", "complete"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// validTransitions lists the reachable next states. Every state may also
// reset to Idle when a new sequence is loaded.
var validTransitions = map[State][]State{
	StateIdle:     {StateLoading},
	StateLoading:  {StateLoading, StatePlaying, StatePaused},
	StatePlaying:  {StateLoading, StatePaused, StateComplete},
	StatePaused:   {StateLoading, StatePlaying, StateComplete},
	StateComplete: {StateLoading},
}

func (s State) canTransition(next State) bool {
	if next == StateIdle {
		return true
	}
	for _, v := range validTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}
