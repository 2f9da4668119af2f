package config

import "fmt"

const (
	ENV_PREFIX       = "STUDYBUDDY"
	ENV_PROVIDER     = "PROVIDER"
	ENV_MODEL        = "MODEL"
	ENV_PROMPT       = "PROMPT"
	ENV_TEMPERATURE  = "TEMPERATURE"
	ENV_MAX_TOKENS   = "MAX_TOKENS"
	ENV_LOG_FILE     = "LOG_FILE"
	ENV_SECRETS_FILE = "SECRETS_FILE"
	ENV_STREAM       = "STREAM"

	DEFAULT_PROVIDER    = "groq"
	DEFAULT_DOTENV_FILE = ".env"
	SECRETS_DIR         = ".studybuddy"
	SECRETS_FILE        = "secrets.toml"
)

func GetEnvWithPrefix(env string) string {
	return fmt.Sprintf("%s_%s", ENV_PREFIX, env)
}
