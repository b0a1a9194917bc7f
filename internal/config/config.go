package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ServerPort int `env:"SERVER_PORT" envDefault:"8080"`

	// Oracle settings. The default base URL points at the OpenAI-compatible
	// endpoint of a local Ollama instance.
	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMModel         string `env:"LLM_MODEL" envDefault:"gemma2:9b"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY" envDefault:"ollama"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL" envDefault:"http://localhost:11434/v1"`
	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// Arbiter policy
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"5s"`
	DefaultAction string        `env:"DEFAULT_ACTION" envDefault:"NOOP"`
	PromptTurns   int           `env:"PROMPT_TURNS" envDefault:"12"`

	// Context store budgets
	HistoryMaxTurns int `env:"HISTORY_MAX_TURNS" envDefault:"64"`
	HistoryMaxChars int `env:"HISTORY_MAX_CHARS" envDefault:"16384"`

	// Emulator
	RomsPath              string `env:"ROMS_PATH" envDefault:"roms"`
	SaveStatesPath        string `env:"SAVE_STATES_PATH" envDefault:"save_states"`
	FrameSkip             int    `env:"FRAME_SKIP" envDefault:"1"`
	AutosaveIntervalSteps int    `env:"AUTOSAVE_INTERVAL_STEPS" envDefault:"120"`

	// Session lifecycle
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"15m"`
	IdleSweepEvery time.Duration `env:"IDLE_SWEEP_EVERY" envDefault:"1m"`

	// Reward policy, keyed by event name (score_delta, life_lost, level_complete)
	RewardWeights map[string]float64 `env:"REWARD_WEIGHTS" envKeyValSeparator:":" envDefault:"score_delta:1,life_lost:-25,level_complete:100"`

	// Storage
	StepLogPath string `env:"STEP_LOG_PATH" envDefault:"logs/steps.jsonl"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
