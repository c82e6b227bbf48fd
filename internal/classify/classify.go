package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pedidobot/internal/services"
)

// Input is what a classifier looks at.
type Input struct {
	Filename     string
	Caption      string
	ProviderHint string
}

// Empty reports whether there is nothing to classify.
func (in Input) Empty() bool {
	return strings.TrimSpace(in.Filename) == "" && strings.TrimSpace(in.Caption) == ""
}

// Result is a structured guess. Empty fields mean unknown.
type Result struct {
	Title    string
	Chapter  string
	Category string
	Tags     []string
	// Source names the classifier that produced the result.
	Source string
}

// Classifier labels content.
type Classifier interface {
	Classify(ctx context.Context, input Input) (Result, error)
}

// ErrNoClassification is returned when a classifier cannot produce a title.
var ErrNoClassification = fmt.Errorf("%w: no classification available", services.ErrValidation)

// Chain tries classifiers in order and returns the first success.
type Chain []Classifier

// Classify implements Classifier.
func (c Chain) Classify(ctx context.Context, input Input) (Result, error) {
	var errs []error
	for _, classifier := range c {
		if classifier == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := classifier.Classify(ctx, input)
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Result{}, ErrNoClassification
	}
	return Result{}, errors.Join(errs...)
}
