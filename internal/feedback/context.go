package feedback

// placeholder substitutes every absent optional context field in both the
// prompt and the summary echo, so neither ever sees missing data.
const placeholder = "not provided"

// SessionContext carries the optional free-text attributes a client may
// attach to a feedback request.
type SessionContext struct {
	StudyTopic    string `json:"study_topic,omitempty"`
	StudyGoal     string `json:"study_goal,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	Concentration string `json:"concentration,omitempty"`
	Mood          string `json:"mood,omitempty"`
	Interruptions string `json:"interruptions,omitempty"`
	StudyMethod   string `json:"study_method,omitempty"`
	Environment   string `json:"environment,omitempty"`
	EnergyLevel   string `json:"energy_level,omitempty"`
	StressLevel   string `json:"stress_level,omitempty"`
}

// withDefaults returns a copy with every empty field set to the placeholder.
// One defaulting pass here replaces scattered inline empty-checks downstream.
func (c SessionContext) withDefaults() SessionContext {
	fields := []*string{
		&c.StudyTopic, &c.StudyGoal, &c.Difficulty, &c.Concentration, &c.Mood,
		&c.Interruptions, &c.StudyMethod, &c.Environment, &c.EnergyLevel, &c.StressLevel,
	}
	for _, f := range fields {
		if *f == "" {
			*f = placeholder
		}
	}
	return c
}

// Request asks for AI feedback on one persisted timer record. Mode and
// StudySummary override the stored values when present.
type Request struct {
	TimerID      string         `json:"timer_id"`
	Mode         string         `json:"mode,omitempty"`
	StudySummary string         `json:"study_summary,omitempty"`
	Context      SessionContext `json:"context"`
}

// SessionSummary echoes the numeric and contextual shape of the session back
// to the caller alongside the generated feedback.
type SessionSummary struct {
	StudyTimeSeconds int    `json:"study_time_seconds"`
	StudyTimeMinutes int    `json:"study_time_minutes"`
	RestTimeSeconds  int    `json:"rest_time_seconds"`
	RestTimeMinutes  int    `json:"rest_time_minutes"`
	Mode             string `json:"mode"`
	Summary          string `json:"summary"`

	SessionContext
}

// Response is the three-field coaching result plus the session echo.
type Response struct {
	SessionSummary SessionSummary `json:"session_summary"`
	Feedback       string         `json:"feedback"`
	Suggestions    string         `json:"suggestions"`
	Motivation     string         `json:"motivation"`
}
