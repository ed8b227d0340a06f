package notifx

// SendOptions collects per-send knobs providers may honor.
type SendOptions struct {
	Tags     map[string]string
	ConfigID string
}

// Option mutates SendOptions.
type Option func(*SendOptions)

// WithTags attaches provider metadata tags.
func WithTags(tags map[string]string) Option {
	return func(o *SendOptions) { o.Tags = tags }
}

// WithConfigID selects a provider configuration set.
func WithConfigID(id string) Option {
	return func(o *SendOptions) { o.ConfigID = id }
}

func applySendOptions(opts []Option) SendOptions {
	var so SendOptions
	for _, o := range opts {
		o(&so)
	}
	return so
}
