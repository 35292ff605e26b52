package provisions

import (
	"runtime"

	"go.uber.org/zap"
)

type option struct {
	// How many units of work run in parallel.
	workers int
	logger  *zap.Logger
	// whether verification keeps going after the first failure
	diagnostics bool
}

func applyOpts(options ...OptionFunc) *option {
	opts := &option{
		workers: runtime.NumCPU(),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		opt(opts)
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	return opts
}

type OptionFunc func(*option)

func WithWorkers(n int) OptionFunc {
	return func(o *option) {
		o.workers = n
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDiagnostics makes VerifyProof run every sub-check and report all
// failures instead of stopping at the first one.
func WithDiagnostics() OptionFunc {
	return func(o *option) {
		o.diagnostics = true
	}
}
