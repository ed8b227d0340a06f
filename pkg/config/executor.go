package config

// ExecutorConfig configures the model provider behind job execution.
type ExecutorConfig struct {
	Provider    string // openai | anthropic | bedrock | gemini | static
	Model       string
	APIKey      string
	AWSRegion   string
	MaxTokens   int
	Temperature float64
}

func loadExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Provider:    getEnv("EXECUTOR_PROVIDER", "openai"),
		Model:       getEnv("EXECUTOR_MODEL", ""),
		APIKey:      getEnv("EXECUTOR_API_KEY", ""),
		AWSRegion:   getEnv("EXECUTOR_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		MaxTokens:   getEnvInt("EXECUTOR_MAX_TOKENS", 4096),
		Temperature: getEnvFloat("EXECUTOR_TEMPERATURE", 0.2),
	}
}
