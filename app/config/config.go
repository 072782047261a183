package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type Config struct {
	// Deployment environment, self-reinvocation only happens in prod
	Env    string `yaml:"env" example:"prod" validate:"required,oneof=dev prod"`
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
	Models Models `yaml:"models"`
	Lambda Lambda `yaml:"lambda"`
}

type Server struct {
	// Address the HTTP server listens on
	Addr string `yaml:"addr" example:":8080" validate:"required"`
	// Maximum accepted request body in bytes
	BodyLimit int `yaml:"body_limit" example:"1048576" validate:"gte=0"`
}

type Models struct {
	Base   BaseModel   `yaml:"base"`
	Coref  CorefModel  `yaml:"coref"`
	AMR    AMRModel    `yaml:"amr"`
	Remote RemoteModel `yaml:"remote"`
	OpenAI OpenAI      `yaml:"openai"`
}

type BaseModel struct {
	// Backend producing tokens, tags, dependencies and entities
	Backend string `yaml:"backend" example:"rules" validate:"required,oneof=rules remote"`
	// Model name passed to the remote model server
	Name string `yaml:"name" example:"en_core_web_trf"`
}

type CorefModel struct {
	// Coreference component attached to the base pipeline
	Backend string `yaml:"backend" example:"rules" validate:"required,oneof=rules none"`
}

type AMRModel struct {
	// Backend producing PENMAN graphs per sentence
	Backend string `yaml:"backend" example:"rules" validate:"required,oneof=rules remote openai none"`
	// Model name passed to the remote model server
	Name string `yaml:"name" example:"model_parse_xfm_bart_large"`
}

type RemoteModel struct {
	// Base url of the JSON model server
	BaseURL string `yaml:"base_url" example:"http://127.0.0.1:9000"`
	// Per request timeout
	Timeout time.Duration `yaml:"timeout" example:"2m"`
	// Attempts to reach /health while loading
	ProbeAttempts int `yaml:"probe_attempts" example:"30" validate:"gte=0"`
}

type OpenAI struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// OpenAI model
	Model string `yaml:"model" example:"gpt-4o-mini"`
}

type Lambda struct {
	// Name of this function, target of self-reinvocation
	FunctionName string `yaml:"function_name" example:"spacy-server"`
	// Version of the running function
	FunctionVersion string `yaml:"function_version" example:"42"`
	// File holding the latest deployed version
	VersionFile string `yaml:"version_file" example:"/tmp/spacy_latest_version" validate:"required"`
	// host:port of the Lambda runtime API, used by the extension
	RuntimeAPI string `yaml:"runtime_api" example:"127.0.0.1:9001"`
	// Name the extension registers with
	ExtensionName string `yaml:"extension_name" example:"self-invoke-on-shutdown" validate:"required"`
}

type Log struct {
	// Log handler format, json suits CloudWatch
	Format string `yaml:"format" example:"console" validate:"oneof=console json"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

// Load reads the YAML file at path when it exists, fills defaults,
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, &result); err != nil {
			return nil, oops.Errorf("failed to parse YAML config: %w", err)
		}
	}

	applyDefaults(&result)

	if err = applyEnv(&result); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err = validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	if err = result.check(); err != nil {
		return nil, err
	}

	return &result, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = EnvDev
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 1 << 20
	}
	if cfg.Models.Base.Backend == "" {
		cfg.Models.Base.Backend = "rules"
	}
	if cfg.Models.Base.Name == "" {
		cfg.Models.Base.Name = "en_core_web_trf"
	}
	if cfg.Models.Coref.Backend == "" {
		cfg.Models.Coref.Backend = "rules"
	}
	if cfg.Models.AMR.Backend == "" {
		cfg.Models.AMR.Backend = "rules"
	}
	if cfg.Models.Remote.Timeout == 0 {
		cfg.Models.Remote.Timeout = 2 * time.Minute
	}
	if cfg.Models.Remote.ProbeAttempts == 0 {
		cfg.Models.Remote.ProbeAttempts = 30
	}
	if cfg.Models.OpenAI.BaseURL == "" {
		cfg.Models.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Models.OpenAI.Model == "" {
		cfg.Models.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Lambda.VersionFile == "" {
		cfg.Lambda.VersionFile = "/dev/null"
	}
	if cfg.Lambda.ExtensionName == "" {
		cfg.Lambda.ExtensionName = "self-invoke-on-shutdown"
	}
}

func applyEnv(cfg *Config) error {
	overrides := []struct {
		name   string
		target *string
	}{
		{"SPACY_SERVER_ENV", &cfg.Env},
		{"SPACY_LATEST_VERSION_FILE", &cfg.Lambda.VersionFile},
		{"AWS_LAMBDA_FUNCTION_NAME", &cfg.Lambda.FunctionName},
		{"AWS_LAMBDA_FUNCTION_VERSION", &cfg.Lambda.FunctionVersion},
		{"AWS_LAMBDA_RUNTIME_API", &cfg.Lambda.RuntimeAPI},
		{"AMR_STOG_DIR", &cfg.Models.AMR.Name},
		{"MODEL_SERVER_URL", &cfg.Models.Remote.BaseURL},
		{"OPENAI_API_KEY", &cfg.Models.OpenAI.Token},
	}

	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.name); ok && value != "" {
			*o.target = value
		}
	}

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return oops.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Addr = ":" + port
	}

	return nil
}

func (c *Config) check() error {
	usesRemote := c.Models.Base.Backend == "remote" || c.Models.AMR.Backend == "remote"
	if usesRemote && c.Models.Remote.BaseURL == "" {
		return oops.Errorf("models.remote.base_url is required by the remote backend")
	}

	if c.Models.AMR.Backend == "openai" && c.Models.OpenAI.Token == "" {
		return oops.Errorf("models.openai.token is required by the openai backend")
	}

	return nil
}
