package classify

import (
	"context"

	"pedidobot/internal/services"
	"pedidobot/internal/services/llm"
	"pedidobot/internal/textutil"
)

type contentClient interface {
	ClassifyContent(ctx context.Context, input llm.ContentInput) (llm.ContentGuess, error)
}

// LLM classifies through a chat model.
type LLM struct {
	client contentClient
}

// NewLLM wraps an llm client.
func NewLLM(client contentClient) *LLM {
	return &LLM{client: client}
}

// Classify implements Classifier.
func (l *LLM) Classify(ctx context.Context, input Input) (Result, error) {
	if l == nil || l.client == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "classify", "llm", "client not configured", nil)
	}
	if input.Empty() {
		return Result{}, ErrNoClassification
	}
	guess, err := l.client.ClassifyContent(ctx, llm.ContentInput{
		Filename:     input.Filename,
		Caption:      input.Caption,
		ProviderHint: input.ProviderHint,
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrIO, "classify", "llm", "content classification failed", err)
	}
	return Result{
		Title:    guess.Title,
		Chapter:  textutil.NormalizeChapter(guess.Chapter),
		Category: guess.Category,
		Tags:     guess.Tags,
		Source:   "llm",
	}, nil
}
