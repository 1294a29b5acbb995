package stackfsm

// DefaultMaxCascadeSteps bounds the number of targeted eventless transitions
// taken while settling after a single Start or Send
const DefaultMaxCascadeSteps = 1000

type options struct {
	id              string
	maxCascadeSteps int
}

func defaultOptions() options {
	return options{maxCascadeSteps: DefaultMaxCascadeSteps}
}

// Option configures a Machine at construction
type Option func(*options)

// WithMaxCascadeSteps overrides DefaultMaxCascadeSteps. Values below 1 are ignored.
func WithMaxCascadeSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCascadeSteps = n
		}
	}
}

// WithID sets the machine identifier instead of a generated UUID
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}
