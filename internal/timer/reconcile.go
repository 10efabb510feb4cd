package timer

import "time"

// ReconcileInput is the raw, possibly redundant timing data a client submits
// when persisting a finished session.
type ReconcileInput struct {
	StudyMinutes int
	RestMinutes  int
	StartTime    *time.Time
	EndTime      *time.Time
	Mode         string

	// Client-measured wall time, highest priority when present.
	OverrideStudySeconds *int
	OverrideRestSeconds  *int
}

// Reconcile derives canonical study/rest second counts from client timing
// data. Precedence: explicit override seconds, then the start/end interval
// split by mode, then the configured minutes. Validation (minimum durations
// and the like) is deliberately not done here.
func Reconcile(in ReconcileInput) (studySeconds, restSeconds int) {
	if in.OverrideStudySeconds != nil || in.OverrideRestSeconds != nil {
		if in.OverrideStudySeconds != nil {
			studySeconds = *in.OverrideStudySeconds
		}
		if in.OverrideRestSeconds != nil {
			restSeconds = *in.OverrideRestSeconds
		}
		return studySeconds, restSeconds
	}

	if in.StartTime != nil && in.EndTime != nil {
		total := int(in.EndTime.Sub(*in.StartTime) / time.Second)
		switch in.Mode {
		case "", string(ModeStudy):
			return total, 0
		case string(ModeBreak):
			return 0, total
		default:
			// Mixed pomodoro modes trust the client's own distribution.
			return in.StudyMinutes * 60, in.RestMinutes * 60
		}
	}

	return in.StudyMinutes * 60, in.RestMinutes * 60
}
