package event

// TimeOfDay buckets an event's start hour.
type TimeOfDay string

const (
	TimeOfDayDay     TimeOfDay = "day"
	TimeOfDayEvening TimeOfDay = "evening"
	TimeOfDayNight   TimeOfDay = "night"
)

// TimeOfDayForHour maps a 24h start hour to its bucket.
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour >= 6 && hour < 18:
		return TimeOfDayDay
	case hour >= 18 && hour < 23:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}

// SourceStatus is the outcome recorded in a SourceRunLog.
type SourceStatus string

const (
	SourceSucceeded SourceStatus = "success"
	SourcePartial   SourceStatus = "partial"
	SourceFailed    SourceStatus = "failed"
)

// RunState tracks the orchestrator lifecycle.
type RunState string

const (
	RunPending            RunState = "pending"
	RunRunning            RunState = "running"
	RunCompleted          RunState = "completed"
	RunPartiallyCompleted RunState = "partially_completed"
	RunFailed             RunState = "failed"
)

type runTransition struct {
	from RunState
	to   RunState
}

var runTransitions = map[runTransition]struct{}{
	{RunPending, RunRunning}:            {},
	{RunPending, RunFailed}:             {},
	{RunRunning, RunCompleted}:          {},
	{RunRunning, RunPartiallyCompleted}: {},
	{RunRunning, RunFailed}:             {},
}

// CanTransition reports whether a run may move from s to next.
func (s RunState) CanTransition(next RunState) bool {
	_, ok := runTransitions[runTransition{s, next}]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunPartiallyCompleted || s == RunFailed
}

// UpsertOutcome classifies a catalog write relative to the stored row.
type UpsertOutcome string

const (
	OutcomeNew       UpsertOutcome = "new"
	OutcomeUpdated   UpsertOutcome = "updated"
	OutcomeUnchanged UpsertOutcome = "unchanged"
)
