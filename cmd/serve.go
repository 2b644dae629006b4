package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/httpapi"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on")
	serveCmd.Flags().String("questions", "", "question bank used for sessions created without questions")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	repo, sqliteRepo, closeRepo, err := newRepository(config.Store)
	if err != nil {
		return err
	}
	defer closeRepo()

	var (
		opts    []httpapi.Option
		dirOpts []interview.Option
	)

	bank, _ := cmd.Flags().GetString("questions")
	if bank == "" {
		bank = config.Interview.QuestionsFile
	}
	if bank != "" {
		questions, err := interview.LoadBank(bank)
		if err != nil {
			return err
		}
		logger.Info("question bank loaded", zap.String("path", bank), zap.Int("questions", len(questions)))
		opts = append(opts, httpapi.WithQuestionBank(questions))
		// Unknown session ids start from the bank on their first question or answer.
		dirOpts = append(dirOpts, interview.WithDefaultQuestions(questions))
	}

	c, err := newCoach(ctx, config, repo, logger, true, dirOpts...)
	if err != nil {
		return err
	}

	if sqliteRepo != nil {
		opts = append(opts, httpapi.WithStats(sqliteRepo))
		go sweep(ctx, sqliteRepo, config.Server.SweepInterval, logger)
	}

	return httpapi.New(c, logger, opts...).Run(ctx, config.Server.Addr)
}

// sweep removes expired sessions until ctx is done.
func sweep(ctx context.Context, repo *sqlite.Repository, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		logger.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Sweep(ctx)
			if err != nil {
				logger.Error("sweeping sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}
