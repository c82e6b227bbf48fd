package preflight

import (
	"context"
	"strings"

	"pedidobot/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding service is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
		CheckDatabase(ctx, cfg),
	}

	if strings.TrimSpace(cfg.Gateway.BridgeURL) != "" {
		results = append(results, CheckBridge(ctx, cfg))
	}
	if strings.TrimSpace(cfg.Notifications.RedisURL) != "" {
		results = append(results, CheckRedis(ctx, cfg.Notifications.RedisURL))
	}
	if cfg.Classifier.LLMEnabled {
		results = append(results, CheckLLM(ctx, "Classifier LLM", cfg))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
