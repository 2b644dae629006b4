package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-coach/internal/headhunter"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/secrets"
	"github.com/spigell/interview-coach/internal/store/memory"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Analyze a job description and generate an interview plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return prepare(cmd)
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().String("job-file", "", "file with the job description text")
	prepareCmd.Flags().String("hh-vacancy", "", "hh.ru vacancy id to fetch the job description from")
	prepareCmd.Flags().StringP("output", "o", "", "write the plan to this YAML file instead of stdout")
	prepareCmd.MarkFlagsMutuallyExclusive("job-file", "hh-vacancy")
	prepareCmd.MarkFlagsOneRequired("job-file", "hh-vacancy")
}

func prepare(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Logs go to stderr so the plan can be piped from stdout.
	logger, err := logger.NewWithOutput(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	jobDescription, err := readJobDescription(ctx, cmd, config, logger)
	if err != nil {
		return err
	}

	c, err := newCoach(ctx, config, memory.New(), logger, false)
	if err != nil {
		return err
	}

	plan, err := c.Prepare(ctx, jobDescription)
	if err != nil {
		return fmt.Errorf("preparing interview: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(plan)
	}

	if err := plan.Save(output); err != nil {
		return err
	}
	logger.Info("interview plan saved",
		zap.String("path", output),
		zap.String("position", plan.Position()),
		zap.Int("questions", len(plan.Questions)),
	)
	return nil
}

func readJobDescription(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (string, error) {
	if path, _ := cmd.Flags().GetString("job-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job description: %w", err)
		}
		return string(data), nil
	}

	id, _ := cmd.Flags().GetString("hh-vacancy")
	if strings.TrimSpace(id) == "" {
		return "", errors.New("either --job-file or --hh-vacancy is required")
	}

	hh := headhunter.New(logger, resolveHHToken(config.HH, logger))
	if config.HH.UserAgent != "" {
		hh.UserAgent = config.HH.UserAgent
	}

	vacancy, err := hh.GetVacancy(ctx, id)
	if err != nil {
		return "", err
	}
	logger.Info("vacancy fetched", zap.String("vacancy_id", vacancy.ID), zap.String("name", vacancy.Name))
	return vacancy.JobDescription(), nil
}

// resolveHHToken returns an empty token when none is configured; public
// vacancies can be read anonymously.
func resolveHHToken(cfg *HHConfig, logger *zap.Logger) string {
	if strings.TrimSpace(cfg.Token) == "" && strings.TrimSpace(cfg.TokenFile) == "" && os.Getenv("HH_TOKEN") == "" {
		return ""
	}
	token, err := secrets.Load(secrets.Source{
		Name:  "headhunter token",
		Value: cfg.Token,
		File:  cfg.TokenFile,
		Env:   "HH_TOKEN",
	})
	if err != nil {
		logger.Warn("ignoring headhunter token", zap.Error(err))
		return ""
	}
	return token
}
