package domain

// Phase is the session's current stage in the match lifecycle.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseWordCloud   Phase = "wordcloud"
	PhaseQuestion    Phase = "question"
	PhaseExplanation Phase = "explanation"
	PhaseResults     Phase = "results"
	PhaseFinal       Phase = "final"
)

// String returns the wire representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether moving from p to target is legal.
// Phases advance along a strict path; results loops back to question
// until the quiz runs out, then terminates at final.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:       {PhaseWordCloud},
		PhaseWordCloud:   {PhaseQuestion},
		PhaseQuestion:    {PhaseExplanation},
		PhaseExplanation: {PhaseResults},
		PhaseResults:     {PhaseQuestion, PhaseFinal},
	}

	for _, allowed := range validTransitions[p] {
		if allowed == target {
			return true
		}
	}
	return false
}
