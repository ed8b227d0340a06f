package config

import "time"

// PaymentConfig configures the payment processor integration.
type PaymentConfig struct {
	ServiceURL      string
	APIKey          string
	Network         string
	AgentIdentifier string
	WebhookSecret   string
	PollInterval    time.Duration
	PollMaxAttempts int
}

// Enabled reports whether a payment processor is configured at all.
func (p PaymentConfig) Enabled() bool {
	return p.ServiceURL != ""
}

func loadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		ServiceURL:      getEnv("PAYMENT_SERVICE_URL", ""),
		APIKey:          getEnv("PAYMENT_API_KEY", ""),
		Network:         getEnv("NETWORK", "Preprod"),
		AgentIdentifier: getEnv("AGENT_IDENTIFIER", ""),
		WebhookSecret:   getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		PollInterval:    getEnvDuration("PAYMENT_POLL_INTERVAL", time.Minute),
		PollMaxAttempts: getEnvInt("PAYMENT_POLL_MAX_ATTEMPTS", 60),
	}
}
