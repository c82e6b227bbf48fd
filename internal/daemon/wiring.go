package daemon

import (
	"time"

	"pedidobot/internal/classify"
	"pedidobot/internal/config"
	"pedidobot/internal/guard"
	"pedidobot/internal/library"
	"pedidobot/internal/services/llm"
)

// BuildClassifier returns the configured classifier chain. The heuristic
// classifier always runs last so an unreachable model still yields a guess.
func BuildClassifier(cfg *config.Config) classify.Classifier {
	if cfg == nil || !cfg.Classifier.LLMEnabled || cfg.Classifier.APIKey == "" {
		return classify.Heuristic{}
	}
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Classifier.APIKey,
		BaseURL:        cfg.Classifier.BaseURL,
		Model:          cfg.Classifier.Model,
		Referer:        cfg.Classifier.Referer,
		Title:          cfg.Classifier.Title,
		TimeoutSeconds: int(cfg.ClassifierTimeout() / time.Second),
	}, llm.WithRetry(1, 0, 0))
	return classify.Chain{classify.NewLLM(client), classify.Heuristic{}}
}

// GuardLimits maps the [guard] section onto cache limits.
func GuardLimits(cfg *config.Config) guard.Limits {
	return guard.Limits{
		Window:     time.Duration(cfg.Guard.WindowSeconds) * time.Second,
		MaxAge:     time.Duration(cfg.Guard.MaxAgeHours) * time.Hour,
		SweepAbove: cfg.Guard.SweepAbove,
		HardLimit:  cfg.Guard.HardLimit,
		TrimTo:     cfg.Guard.TrimTo,
	}
}

// RankOptions maps the [matching] section onto ranking options.
func RankOptions(cfg *config.Config) library.RankOptions {
	return library.RankOptions{
		MinScore: cfg.Matching.MinScore,
		Limit:    cfg.Matching.MaxResults,
	}
}
