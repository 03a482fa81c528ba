package game

// Phase is the session lifecycle state. Transitions are monotonic:
// lobby feeds active, active feeds the two terminal phases, and nothing
// ever returns to lobby.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseActive  Phase = "active"
	PhaseVictory Phase = "victory"
	PhaseDefeat  Phase = "defeat"
)

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat
}

// CanTransition reports whether the lifecycle permits moving from p to
// next.
func (p Phase) CanTransition(next Phase) bool {
	switch p {
	case PhaseLobby:
		return next == PhaseActive
	case PhaseActive:
		return next == PhaseVictory || next == PhaseDefeat
	}
	return false
}
