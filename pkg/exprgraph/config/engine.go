package config

import (
	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
)

// Engine holds the settings the expression engine understands.
type Engine struct {
	// CacheEnabled turns per-context result caching on. Default true.
	CacheEnabled bool
	// MaxDepth is the evaluation recursion guard. Zero means no explicit
	// limit; depth is then bounded by the operation count.
	MaxDepth int
	// AllowedFunctions restricts the extension functions expressions may
	// call. Empty means no restriction.
	AllowedFunctions []string
}

// Engine extracts engine settings from the config keys "cache_enabled",
// "max_depth" and "allowed_functions", defaulting anything missing.
func (c Config) Engine() Engine {
	return Engine{
		CacheEnabled:     c.Bool("cache_enabled", true),
		MaxDepth:         c.Int("max_depth", 0),
		AllowedFunctions: c.StringSlice("allowed_functions", nil),
	}
}

// Options converts the settings to evaluation options for
// Expression.Context.
func (e Engine) Options() []exprgraph.Option {
	return []exprgraph.Option{
		exprgraph.WithCache(e.CacheEnabled),
		exprgraph.WithMaxDepth(e.MaxDepth),
	}
}

// Allowed reports whether expressions may call the named extension
// function. With no restriction configured, every function is allowed.
func (e Engine) Allowed(name string) bool {
	if len(e.AllowedFunctions) == 0 {
		return true
	}
	for _, allowed := range e.AllowedFunctions {
		if allowed == name {
			return true
		}
	}
	return false
}
