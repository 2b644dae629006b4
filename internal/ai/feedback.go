package ai

import (
	"fmt"
	"strconv"
	"strings"
)

// FeedbackReport is the structured evaluation of a completed interview.
type FeedbackReport struct {
	SessionID          string             `json:"session_id,omitempty" mapstructure:"-"`
	CandidateName      string             `json:"candidate_name,omitempty" mapstructure:"-"`
	Position           string             `json:"position,omitempty" mapstructure:"-"`
	OverallPerformance OverallPerformance `json:"overall_performance" mapstructure:"overall_performance"`
	QuestionFeedback   []QuestionFeedback `json:"question_feedback" mapstructure:"question_feedback"`
	NextSteps          []string           `json:"next_steps" mapstructure:"next_steps"`
	Resources          []string           `json:"resources" mapstructure:"resources"`
}

type OverallPerformance struct {
	TotalScore           float64  `json:"total_score" mapstructure:"total_score"`
	Summary              string   `json:"summary" mapstructure:"summary"`
	KeyStrengths         []string `json:"key_strengths" mapstructure:"key_strengths"`
	MainImprovementAreas []string `json:"main_improvement_areas" mapstructure:"main_improvement_areas"`
}

type QuestionFeedback struct {
	QuestionID          string             `json:"question_id" mapstructure:"question_id"`
	QuestionText        string             `json:"question_text" mapstructure:"question_text"`
	AnswerText          string             `json:"answer_text" mapstructure:"answer_text"`
	Strengths           []string           `json:"strengths" mapstructure:"strengths"`
	AreasForImprovement []string           `json:"areas_for_improvement" mapstructure:"areas_for_improvement"`
	SpecificSuggestions []string           `json:"specific_suggestions" mapstructure:"specific_suggestions"`
	OverallScore        float64            `json:"overall_score" mapstructure:"overall_score"`
	ScoreBreakdown      map[string]float64 `json:"score_breakdown" mapstructure:"score_breakdown"`
	QuestionType        string             `json:"question_type" mapstructure:"question_type"`
	DifficultyLevel     string             `json:"difficulty_level" mapstructure:"difficulty_level"`
	SkillsAssessed      []string           `json:"skills_assessed" mapstructure:"skills_assessed"`
}

// FormatFeedback renders report as plain text suitable for reading aloud.
func FormatFeedback(report *FeedbackReport) string {
	if report == nil {
		return ""
	}

	var b strings.Builder
	overall := report.OverallPerformance

	b.WriteString("Great job completing the interview! Let me share your feedback with you.\n\n")
	b.WriteString("Overall Performance:\n")
	summary := strings.TrimSpace(overall.Summary)
	if summary == "" {
		summary = "Good work!"
	}
	fmt.Fprintf(&b, "You scored %s out of 10 overall. %s\n", formatScore(overall.TotalScore), summary)

	writeSection(&b, "Your Key Strengths", overall.KeyStrengths)
	writeSection(&b, "Areas for Improvement", overall.MainImprovementAreas)

	if len(report.QuestionFeedback) > 0 {
		b.WriteString("\nQuestion-by-Question Feedback:\n")
	}
	for i, q := range report.QuestionFeedback {
		kind := strings.TrimSpace(q.QuestionType)
		if kind == "" {
			kind = "general"
		}
		fmt.Fprintf(&b, "\nQuestion %d - %s question:\n", i+1, kind)
		fmt.Fprintf(&b, "You scored %s out of 10.\n", formatScore(q.OverallScore))
		writeSection(&b, "What you did well", q.Strengths)
		writeSection(&b, "Areas to improve", q.AreasForImprovement)
		writeSection(&b, "Specific suggestions", q.SpecificSuggestions)
	}

	writeSection(&b, "Next Steps for Improvement", report.NextSteps)

	b.WriteString("\nRemember, practice makes perfect! Keep working on these areas and you'll continue to improve your interview skills.")
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			fmt.Fprintf(b, "• %s\n", item)
		}
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
