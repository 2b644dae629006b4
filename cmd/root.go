package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-coach/internal/selection"
)

const (
	app       = "interview-coach"
	envPrefix = "INTERVIEW_COACH"
)

type Config struct {
	AI        *AIConfig        `mapstructure:"ai"`
	Store     *StoreConfig     `mapstructure:"store"`
	Server    *ServerConfig    `mapstructure:"server"`
	Interview *InterviewConfig `mapstructure:"interview"`
	HH        *HHConfig        `mapstructure:"hh"`
}

type AIConfig struct {
	Provider      string          `mapstructure:"provider"`
	MaxLogLength  int             `mapstructure:"max-log-length"`
	QuestionCount int             `mapstructure:"question-count"`
	Gemini        *ProviderConfig `mapstructure:"gemini"`
	OpenAI        *ProviderConfig `mapstructure:"openai"`
	Anthropic     *ProviderConfig `mapstructure:"anthropic"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
	BaseURL    string `mapstructure:"base-url"`
}

type StoreConfig struct {
	Driver string        `mapstructure:"driver"`
	Path   string        `mapstructure:"path"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
}

type InterviewConfig struct {
	QuestionsFile string            `mapstructure:"questions-file"`
	Selection     *selection.Config `mapstructure:"selection"`
}

type HHConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "interview-coach prepares and runs mock job interviews with AI generated questions and feedback",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.max-log-length", 2000)
	viper.SetDefault("ai.question-count", 3)
	for _, provider := range []string{providerGemini, providerOpenAI, providerAnthropic} {
		viper.SetDefault("ai."+provider+".api-key", "")
		viper.SetDefault("ai."+provider+".api-key-file", "")
		viper.SetDefault("ai."+provider+".model", "")
		viper.SetDefault("ai."+provider+".max-retries", 3)
	}
	viper.SetDefault("ai.openai.base-url", "")
	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.path", app+".db")
	viper.SetDefault("store.ttl", "24h")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.sweep-interval", "10m")
	viper.SetDefault("interview.questions-file", "")
	viper.SetDefault("hh.token", "")
	viper.SetDefault("hh.token-file", "")
	viper.SetDefault("hh.user-agent", "")
}

func initConfig() {
	// A missing .env is fine; values may come from the real environment.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config must exist and parse; the default one is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Store == nil {
		config.Store = &StoreConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Interview == nil {
		config.Interview = &InterviewConfig{}
	}
	if config.HH == nil {
		config.HH = &HHConfig{}
	}

	return config, nil
}
