package job

// Pair is one key/value element of a job's input sequence.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Input is the ordered sequence of key/value pairs supplied by the
// requester. Order is preserved as received; duplicate keys are allowed and
// Get returns the first match.
type Input []Pair

// Get returns the value for the first pair with the given key.
func (in Input) Get(key string) (string, bool) {
	for _, p := range in {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Keys returns the keys in input order.
func (in Input) Keys() []string {
	keys := make([]string, len(in))
	for i, p := range in {
		keys[i] = p.Key
	}
	return keys
}

// Clone returns a copy so callers cannot mutate an accepted input.
func (in Input) Clone() Input {
	out := make(Input, len(in))
	copy(out, in)
	return out
}

// Validate rejects inputs the store should never see.
func (in Input) Validate() error {
	if len(in) == 0 {
		return ErrInvalidInput().WithDetail("reason", "input_data is empty")
	}
	for i, p := range in {
		if p.Key == "" {
			return ErrInvalidInput().
				WithDetail("reason", "pair with empty key").
				WithDetail("index", i)
		}
	}
	return nil
}
