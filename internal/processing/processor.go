package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pedidobot/internal/classify"
	"pedidobot/internal/library"
	"pedidobot/internal/logging"
	"pedidobot/internal/notifications"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/services"
)

// DefaultClassifierTimeout bounds the classifier call when Options leaves it unset.
const DefaultClassifierTimeout = 10 * time.Second

// NoMatchesNote is recorded when nothing in the library qualified.
const NoMatchesNote = "sin coincidencias"

// Deps are the collaborators a Processor needs.
type Deps struct {
	Requests   pedidos.Repository
	Catalog    library.Catalog
	Providers  library.ProviderDirectory
	Classifier classify.Classifier
	Emitter    notifications.Emitter
	Logger     *slog.Logger
}

// Options tunes ranking and the classifier wait.
type Options struct {
	Rank              library.RankOptions
	ClassifierTimeout time.Duration
}

// Outcome describes one processing run.
type Outcome struct {
	Request           *pedidos.Request
	ProviderChannelID string
	Query             library.Query
	Matches           []library.Scored
	// Classified is false when the raw request fields were used.
	Classified bool
}

// Matched reports whether at least one item qualified.
func (o Outcome) Matched() bool { return len(o.Matches) > 0 }

// Processor runs the classify, rank and record pipeline.
type Processor struct {
	requests   pedidos.Repository
	catalog    library.Catalog
	providers  library.ProviderDirectory
	classifier classify.Classifier
	emitter    notifications.Emitter
	logger     *slog.Logger
	opts       Options
	now        func() time.Time
}

// New wires a Processor. A nil classifier means every run uses the raw
// request fields; the emitter is always wrapped with BestEffort.
func New(deps Deps, opts Options) *Processor {
	if opts.ClassifierTimeout <= 0 {
		opts.ClassifierTimeout = DefaultClassifierTimeout
	}
	logger := logging.NewComponentLogger(deps.Logger, "processing")
	return &Processor{
		requests:   deps.Requests,
		catalog:    deps.Catalog,
		providers:  deps.Providers,
		classifier: deps.Classifier,
		emitter:    notifications.BestEffort(deps.Emitter, deps.Logger),
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (p *Processor) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// ProcessAfterCreate runs Process when the request's origin channel is a
// provider with auto-processing enabled. The boolean reports whether it ran.
func (p *Processor) ProcessAfterCreate(ctx context.Context, req *pedidos.Request) (Outcome, bool, error) {
	if req == nil || p.providers == nil {
		return Outcome{}, false, nil
	}
	provider, err := p.providers.Provider(ctx, req.OriginChannelID)
	if err != nil {
		return Outcome{}, false, err
	}
	if provider == nil || !provider.AutoProcessPedidos {
		p.logger.Debug("auto processing skipped",
			logging.Args(append(logging.DecisionAttrs("auto_process", "skipped", "origin is not an auto provider"),
				logging.Pedido(req.ID),
				logging.Channel(req.OriginChannelID))...)...)
		return Outcome{}, false, nil
	}
	outcome, err := p.Process(ctx, req, provider.ChannelID)
	return outcome, err == nil, err
}

// Process matches req against the library of providerChannelID and records
// the outcome. Classifier failures fall back to the raw request fields and
// never fail the run; repository failures do.
func (p *Processor) Process(ctx context.Context, req *pedidos.Request, providerChannelID string) (Outcome, error) {
	providerChannelID = strings.TrimSpace(providerChannelID)
	if req == nil {
		return Outcome{}, services.Wrap(services.ErrValidation, "processing", "process", "request is required", nil)
	}
	if providerChannelID == "" {
		return Outcome{}, services.Wrap(services.ErrValidation, "processing", "process", "provider channel is required", nil)
	}
	ctx = services.WithPedidoID(ctx, req.ID)
	logger := logging.WithContext(ctx, p.logger).With(logging.String("provider_channel_id", providerChannelID))

	var provider *library.Provider
	if p.providers != nil {
		found, err := p.providers.Provider(ctx, providerChannelID)
		if err != nil {
			return Outcome{}, err
		}
		provider = found
	}

	query, classified := p.buildQuery(ctx, logger, req, provider)

	items, err := p.catalog.ListByProvider(ctx, providerChannelID)
	if err != nil {
		return Outcome{}, fmt.Errorf("list library for %s: %w", providerChannelID, err)
	}
	ranked := library.Rank(items, query, p.opts.Rank)

	record := pedidos.Processing{
		ProviderChannelID: providerChannelID,
		Query:             describeQuery(query),
		Matches:           make([]pedidos.Match, 0, len(ranked)),
		Note:              matchNote(len(ranked)),
	}
	for _, scored := range ranked {
		record.Matches = append(record.Matches, pedidos.Match{LibraryItemID: scored.Item.ID, Score: scored.Score})
	}

	updated, err := p.requests.Update(ctx, req.ID, func(current *pedidos.Request) error {
		current.ApplyProcessing(record, p.now())
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	result := "no_matches"
	if len(ranked) > 0 {
		result = "matched"
	}
	attrs := logging.DecisionAttrs("library_match", result, record.Note)
	attrs = append(attrs,
		logging.Int("candidates", len(items)),
		logging.Int("matches", len(ranked)),
		logging.Bool("classified", classified),
		logging.String("state", string(updated.State)),
	)
	if len(ranked) > 0 {
		attrs = append(attrs, logging.Float64("top_score", ranked[0].Score))
	}
	logger.Info("request processed", logging.Args(attrs...)...)

	_ = p.emitter.Emit(ctx, notifications.EventPedidoUpdated, notifications.FromRequest(updated))

	return Outcome{
		Request:           updated,
		ProviderChannelID: providerChannelID,
		Query:             query,
		Matches:           ranked,
		Classified:        classified,
	}, nil
}

func (p *Processor) buildQuery(ctx context.Context, logger *slog.Logger, req *pedidos.Request, provider *library.Provider) (library.Query, bool) {
	if p.classifier == nil {
		return fallbackQuery(req), false
	}
	input := classifyInput(req, provider)
	if input.Empty() {
		return fallbackQuery(req), false
	}

	classifyCtx, cancel := context.WithTimeout(ctx, p.opts.ClassifierTimeout)
	defer cancel()
	result, err := p.classifier.Classify(classifyCtx, input)
	if err != nil {
		hint := "classifier returned no usable result"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(classifyCtx.Err(), context.DeadlineExceeded) {
			hint = "raise [classifier] timeout_seconds or check the LLM endpoint"
		}
		attrs := append(logging.ErrorAttrs(err),
			logging.Hint(hint),
			logging.Impact("matching used the raw request text"),
			logging.Duration("timeout", p.opts.ClassifierTimeout),
		)
		logging.WarnWithContext(logger, "classification failed; using request fields", "classifier_fallback", attrs...)
		return fallbackQuery(req), false
	}
	logger.Debug("classification applied",
		logging.String("source", result.Source),
		logging.String("title", result.Title),
		logging.String("chapter", result.Chapter),
		logging.String("category", result.Category),
	)
	return mergeQuery(req, result), true
}

func matchNote(n int) string {
	if n == 0 {
		return NoMatchesNote
	}
	return fmt.Sprintf("%d coincidencia(s)", n)
}
