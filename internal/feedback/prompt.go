package feedback

import (
	"fmt"
	"strings"

	"github.com/antoniostano/studymate/internal/store"
)

const systemPrompt = "You are an expert study coach who analyses study sessions and suggests concrete improvements."

// buildPrompt renders the session and its optional context into the user
// prompt. ctx must already be defaulted.
func buildPrompt(record store.TimerRecord, mode, summary string, ctx SessionContext) string {
	var b strings.Builder

	b.WriteString("Provide comprehensive feedback on the following study session:\n\n")

	b.WriteString("=== Session basics ===\n")
	fmt.Fprintf(&b, "Study time: %d minutes\n", record.StudySeconds/60)
	fmt.Fprintf(&b, "Rest time: %d minutes\n", record.RestSeconds/60)
	fmt.Fprintf(&b, "Study mode: %s\n", mode)
	fmt.Fprintf(&b, "Session summary: %s\n\n", summary)

	b.WriteString("=== Session details ===\n")
	fmt.Fprintf(&b, "Topic: %s\n", ctx.StudyTopic)
	fmt.Fprintf(&b, "Goal: %s\n", ctx.StudyGoal)
	fmt.Fprintf(&b, "Difficulty: %s\n", ctx.Difficulty)
	fmt.Fprintf(&b, "Concentration: %s\n", ctx.Concentration)
	fmt.Fprintf(&b, "Mood: %s\n", ctx.Mood)
	fmt.Fprintf(&b, "Interruptions: %s\n", ctx.Interruptions)
	fmt.Fprintf(&b, "Study method: %s\n", ctx.StudyMethod)
	fmt.Fprintf(&b, "Environment: %s\n", ctx.Environment)
	fmt.Fprintf(&b, "Energy level: %s\n", ctx.EnergyLevel)
	fmt.Fprintf(&b, "Stress level: %s\n\n", ctx.StressLevel)

	b.WriteString("=== What to analyse ===\n")
	b.WriteString("1. Study efficiency (focus relative to time spent, environmental factors)\n")
	b.WriteString("2. Personal factors (how mood, energy and stress affected the session)\n")
	b.WriteString("3. Environmental factors (study environment, interruptions)\n")
	b.WriteString("4. Study method fit\n")
	b.WriteString("5. Goal progress\n")
	b.WriteString("6. What could be improved next session\n\n")

	b.WriteString("Respond as JSON in exactly this shape:\n")
	b.WriteString("{\n")
	b.WriteString("    \"feedback\": \"overall assessment covering the analysis points above\",\n")
	b.WriteString("    \"suggestions\": \"concrete improvements (environment, method, habits)\",\n")
	b.WriteString("    \"motivation\": \"a personalised motivational message\"\n")
	b.WriteString("}\n")

	return b.String()
}
