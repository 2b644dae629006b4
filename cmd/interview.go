package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/coach"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
)

const (
	commandPause  = ":pause"
	commandResume = ":resume"
	commandStatus = ":status"
	commandQuit   = ":quit"

	promptResume = "Resume"
	promptQuit   = "Quit"
)

var errQuit = errors.New("quit requested")

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive mock interview",
	Long: `Run an interactive mock interview from a prepared plan or a question bank.

While answering you can type :pause, :resume, :status or :quit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().String("plan", "", "interview plan written by the prepare command")
	interviewCmd.Flags().String("questions", "", "question bank file (YAML or JSON)")
	interviewCmd.Flags().String("candidate", "", "candidate name")
	interviewCmd.Flags().String("position", "", "position the interview is for")
	interviewCmd.Flags().String("session", "", "session id; an existing session is resumed")
	interviewCmd.MarkFlagsMutuallyExclusive("plan", "questions")
}

func runInterview(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The conversation owns stdout.
	logger, err := logger.NewWithOutput(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	repo, _, closeRepo, err := newRepository(config.Store)
	if err != nil {
		return err
	}
	defer closeRepo()

	c, err := newCoach(ctx, config, repo, logger, true)
	if err != nil {
		return err
	}

	id, _ := cmd.Flags().GetString("session")
	id = strings.TrimSpace(id)

	if id == "" || !sessionExists(ctx, c, id) {
		if id == "" {
			id = uuid.NewString()
		}
		if err := beginSession(ctx, cmd, config, c, id); err != nil {
			return err
		}
	}

	t := &turnLoop{
		coach:  c,
		id:     id,
		asker:  promptAsker{},
		out:    cmd.OutOrStdout(),
		logger: logger,
	}
	return t.run(ctx)
}

func sessionExists(ctx context.Context, c *coach.Coach, id string) bool {
	_, err := c.Directory().Find(ctx, id)
	return err == nil
}

func beginSession(ctx context.Context, cmd *cobra.Command, config *Config, c *coach.Coach, id string) error {
	plan, err := loadInterviewPlan(ctx, cmd, config, c)
	if err != nil {
		return err
	}

	candidate, _ := cmd.Flags().GetString("candidate")
	if strings.TrimSpace(candidate) == "" {
		candidate, err = promptAsker{}.Ask("Your name")
		if err != nil {
			return err
		}
	}
	position, _ := cmd.Flags().GetString("position")

	s, err := c.Begin(ctx, id, candidate, position, plan)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session %s started for %s: %d questions.\n", s.ID, orUnknown(s.CandidateName), len(s.Questions))
	return nil
}

func loadInterviewPlan(ctx context.Context, cmd *cobra.Command, config *Config, c *coach.Coach) (*coach.Plan, error) {
	if path, _ := cmd.Flags().GetString("plan"); path != "" {
		return coach.LoadPlan(path)
	}

	path, _ := cmd.Flags().GetString("questions")
	if path == "" {
		path = config.Interview.QuestionsFile
	}
	if path == "" {
		return nil, errors.New("either --plan or --questions is required")
	}

	questions, err := interview.LoadBank(path)
	if err != nil {
		return nil, err
	}
	questions, err = c.Select(ctx, questions)
	if err != nil {
		return nil, err
	}
	return &coach.Plan{Questions: questions}, nil
}

// asker reads one line of input from the candidate.
type asker interface {
	Ask(label string) (string, error)
	Choose(label string, items []string) (string, error)
}

type promptAsker struct{}

func (promptAsker) Ask(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("answer must not be empty")
			}
			return nil
		},
	}
	answer, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", errQuit
	}
	return answer, err
}

func (promptAsker) Choose(label string, items []string) (string, error) {
	p := promptui.Select{Label: label, Items: items}
	_, choice, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return promptQuit, nil
	}
	return choice, err
}

// turnLoop asks the current question, records the answer and repeats until
// the session is completed or the candidate quits.
type turnLoop struct {
	coach  *coach.Coach
	id     string
	asker  asker
	out    io.Writer
	logger *zap.Logger
}

func (t *turnLoop) run(ctx context.Context) error {
	dir := t.coach.Directory()

	for {
		next, err := dir.NextQuestion(ctx, t.id)
		if err != nil {
			return err
		}
		if next.Completed() {
			t.printSummary(next.Summary)
			return t.feedback(ctx)
		}

		view, err := dir.Status(ctx, t.id)
		if err != nil {
			return err
		}
		if view.Status == interview.StatusPaused {
			if err := t.waitResume(ctx); err != nil {
				return t.quit(err)
			}
			continue
		}

		fmt.Fprintln(t.out)
		fmt.Fprintln(t.out, formatQuestion(next.Question))

		answer, err := t.asker.Ask("Answer")
		if err != nil {
			return t.quit(err)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case commandQuit:
			return t.quit(errQuit)
		case commandStatus:
			t.printStatus(ctx)
			continue
		case commandPause:
			if err := dir.Pause(ctx, t.id); err != nil {
				fmt.Fprintln(t.out, describeError(err))
			}
			continue
		case commandResume:
			fmt.Fprintln(t.out, "The interview is not paused.")
			continue
		}

		if _, err := dir.RecordAnswer(ctx, t.id, next.Question.Question.ID, answer, ""); err != nil {
			if interview.KindOf(err) == interview.KindUnknown {
				return err
			}
			fmt.Fprintln(t.out, describeError(err))
		}
	}
}

func (t *turnLoop) waitResume(ctx context.Context) error {
	fmt.Fprintln(t.out, "The interview is paused.")
	choice, err := t.asker.Choose("Continue?", []string{promptResume, promptQuit})
	if err != nil {
		return err
	}
	if choice != promptResume {
		return errQuit
	}
	if _, err := t.coach.Directory().Resume(ctx, t.id); err != nil {
		return err
	}
	fmt.Fprintln(t.out, "Resumed.")
	return nil
}

func (t *turnLoop) quit(err error) error {
	if !errors.Is(err, errQuit) {
		return err
	}
	fmt.Fprintf(t.out, "Session %s saved. Resume it later with --session %s.\n", t.id, t.id)
	return nil
}

func (t *turnLoop) printStatus(ctx context.Context) {
	view, err := t.coach.Directory().Status(ctx, t.id)
	if err != nil {
		fmt.Fprintln(t.out, describeError(err))
		return
	}
	fmt.Fprintf(t.out, "%s: question %d of %d, %.0f%% complete, elapsed %s.\n",
		label(string(view.Status)), min(view.CurrentQuestion, view.TotalQuestions), view.TotalQuestions,
		view.PercentageComplete, view.ElapsedTime)
}

func (t *turnLoop) printSummary(summary *interview.CompletionSummary) {
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "Interview completed: %d of %d questions answered.\n", summary.TotalAnswers, summary.TotalQuestions)
	for _, c := range interview.Categories {
		if n := summary.CategoriesCovered[c]; n > 0 {
			fmt.Fprintf(t.out, "  %s: %d\n", label(string(c)), n)
		}
	}
}

func (t *turnLoop) feedback(ctx context.Context) error {
	report, err := t.coach.Feedback(ctx, t.id)
	switch {
	case errors.Is(err, coach.ErrNotConfigured):
		fmt.Fprintln(t.out, "Configure an AI provider to receive feedback on your answers.")
		return nil
	case errors.Is(err, interview.ErrInterviewNotCompleted):
		// A session without questions has nothing to evaluate.
		return nil
	case err != nil:
		t.logger.Warn("feedback failed", zap.Error(err))
		fmt.Fprintln(t.out, describeError(err))
		return nil
	}

	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, ai.FormatFeedback(report))
	return nil
}

var titleCaser = cases.Title(language.English)

func label(s string) string {
	return titleCaser.String(s)
}

func formatQuestion(q *interview.QuestionView) string {
	return fmt.Sprintf("Question %d of %d [%s, %s]\n%s",
		q.Number, q.Total, label(string(q.Question.Category)), label(string(q.Question.Difficulty)), q.Question.Text)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, interview.ErrSessionPaused):
		return "The interview is paused. Type :resume to continue."
	case errors.Is(err, interview.ErrQuestionMismatch):
		return "That answer does not belong to the current question."
	case errors.Is(err, interview.ErrInvalidState):
		return "That is not possible right now: " + err.Error()
	}

	switch interview.KindOf(err) {
	case interview.KindUpstreamAdapter:
		return "The AI service failed: " + err.Error()
	case interview.KindNotFound:
		return "The session no longer exists."
	default:
		return err.Error()
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown candidate"
	}
	return s
}
