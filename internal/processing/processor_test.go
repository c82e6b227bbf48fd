package processing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pedidobot/internal/classify"
	"pedidobot/internal/library"
	"pedidobot/internal/logging"
	"pedidobot/internal/notifications"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/processing"
	"pedidobot/internal/store"
	"pedidobot/internal/testsupport"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEmitter) Emit(_ context.Context, event string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type failingClassifier struct{ err error }

func (f failingClassifier) Classify(context.Context, classify.Input) (classify.Result, error) {
	return classify.Result{}, f.err
}

type blockingClassifier struct{}

func (blockingClassifier) Classify(ctx context.Context, _ classify.Input) (classify.Result, error) {
	<-ctx.Done()
	return classify.Result{}, ctx.Err()
}

type fixture struct {
	store     *store.Store
	emitter   *recordingEmitter
	processor *processing.Processor
	addItem   func(item library.Item) *library.Item
}

func newFixture(t *testing.T, classifier classify.Classifier, opts processing.Options) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	emitter := &recordingEmitter{}
	proc := processing.New(processing.Deps{
		Requests:   st,
		Catalog:    st,
		Providers:  st,
		Classifier: classifier,
		Emitter:    emitter,
		Logger:     logging.NewNop(),
	}, opts)
	return fixture{
		store:     st,
		emitter:   emitter,
		processor: proc,
		addItem: func(item library.Item) *library.Item {
			return testsupport.AddLibraryItem(t, cfg, st, item, 0)
		},
	}
}

func TestProcessRanksChapterMatchFirst(t *testing.T) {
	fx := newFixture(t, classify.Heuristic{}, processing.Options{})
	fx.addItem(library.Item{ProviderChannelID: "prov", Title: "Solo Leveling", Chapter: "9"})
	want := fx.addItem(library.Item{ProviderChannelID: "prov", Title: "Solo Leveling", Chapter: "10"})
	fx.addItem(library.Item{ProviderChannelID: "other", Title: "Solo Leveling", Chapter: "10"})

	req := testsupport.NewPedido(t, fx.store, "Solo Leveling Capitulo 10", "user-1", "chat-1")
	outcome, err := fx.processor.Process(context.Background(), req, "prov")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.Classified {
		t.Fatal("expected heuristic classification to be used")
	}
	if len(outcome.Matches) != 2 {
		t.Fatalf("expected 2 matches from provider library, got %d", len(outcome.Matches))
	}
	top := outcome.Matches[0]
	if top.Item.ID != want.ID {
		t.Fatalf("expected chapter 10 first, got item %d", top.Item.ID)
	}
	if top.Score < library.DefaultMinScore || top.Score-outcome.Matches[1].Score != 30 {
		t.Fatalf("expected chapter bonus of 30, got %.1f vs %.1f", top.Score, outcome.Matches[1].Score)
	}
	if outcome.Request.State != pedidos.StateEnProceso {
		t.Fatalf("expected en_proceso, got %s", outcome.Request.State)
	}

	stored, err := fx.store.Get(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Processing == nil || len(stored.Processing.Matches) != 2 {
		t.Fatalf("expected persisted processing with 2 matches, got %+v", stored.Processing)
	}
	if stored.Processing.Note != "2 coincidencia(s)" {
		t.Fatalf("unexpected note %q", stored.Processing.Note)
	}
	if stored.Processing.ProviderChannelID != "prov" {
		t.Fatalf("unexpected provider %q", stored.Processing.ProviderChannelID)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0] != notifications.EventPedidoUpdated {
		t.Fatalf("expected one pedido.updated event, got %v", fx.emitter.events)
	}
}

func TestProcessEmptyLibraryRecordsNoMatches(t *testing.T) {
	fx := newFixture(t, classify.Heuristic{}, processing.Options{})
	req := testsupport.NewPedido(t, fx.store, "Berserk tomo 3", "user-1", "chat-1")

	outcome, err := fx.processor.Process(context.Background(), req, "prov")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Matched() {
		t.Fatalf("expected no matches, got %d", len(outcome.Matches))
	}
	if outcome.Request.State != pedidos.StatePendiente {
		t.Fatalf("expected pendiente, got %s", outcome.Request.State)
	}
	if outcome.Request.Processing == nil || outcome.Request.Processing.Note != processing.NoMatchesNote {
		t.Fatalf("expected explicit no-match note, got %+v", outcome.Request.Processing)
	}
}

func TestProcessFallsBackWhenClassifierFails(t *testing.T) {
	fx := newFixture(t, failingClassifier{err: errors.New("llm offline")}, processing.Options{})
	fx.addItem(library.Item{ProviderChannelID: "prov", Title: "Vinland Saga"})
	req := testsupport.NewPedido(t, fx.store, "Vinland Saga", "user-1", "chat-1")

	outcome, err := fx.processor.Process(context.Background(), req, "prov")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Classified {
		t.Fatal("expected raw-field fallback")
	}
	if outcome.Query.Title != "Vinland Saga" {
		t.Fatalf("unexpected fallback query %+v", outcome.Query)
	}
	if !outcome.Matched() {
		t.Fatal("expected fallback query to match")
	}
}

func TestProcessBoundsClassifierWait(t *testing.T) {
	fx := newFixture(t, blockingClassifier{}, processing.Options{ClassifierTimeout: 20 * time.Millisecond})
	req := testsupport.NewPedido(t, fx.store, "Monster", "user-1", "chat-1")

	start := time.Now()
	outcome, err := fx.processor.Process(context.Background(), req, "prov")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("classifier wait was not bounded: %s", elapsed)
	}
	if outcome.Classified {
		t.Fatal("expected timeout to fall back to raw fields")
	}
}

func TestProcessIsRepeatable(t *testing.T) {
	fx := newFixture(t, classify.Heuristic{}, processing.Options{})
	fx.addItem(library.Item{ProviderChannelID: "prov", Title: "Dorohedoro", Chapter: "5"})
	req := testsupport.NewPedido(t, fx.store, "Dorohedoro cap 5", "user-1", "chat-1")

	first, err := fx.processor.Process(context.Background(), req, "prov")
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}
	second, err := fx.processor.Process(context.Background(), first.Request, "prov")
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if len(first.Matches) != len(second.Matches) || first.Matches[0].Score != second.Matches[0].Score {
		t.Fatalf("expected identical outcomes, got %+v and %+v", first.Matches, second.Matches)
	}
	if second.Request.State != pedidos.StateEnProceso {
		t.Fatalf("expected en_proceso after reprocessing, got %s", second.Request.State)
	}
}

func TestProcessKeepsClosedState(t *testing.T) {
	fx := newFixture(t, classify.Heuristic{}, processing.Options{})
	fx.addItem(library.Item{ProviderChannelID: "prov", Title: "Akira"})
	req := testsupport.NewPedido(t, fx.store, "Akira", "user-1", "chat-1")
	if _, err := fx.store.Update(context.Background(), req.ID, func(r *pedidos.Request) error {
		return r.Cancel(pedidos.Actor{ID: "user-1"}, time.Now())
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	outcome, err := fx.processor.Process(context.Background(), req, "prov")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Request.State != pedidos.StateCancelado {
		t.Fatalf("expected cancelado to be kept, got %s", outcome.Request.State)
	}
	if outcome.Request.Processing == nil || len(outcome.Request.Processing.Matches) != 1 {
		t.Fatalf("expected processing metadata to be recorded, got %+v", outcome.Request.Processing)
	}
}

func TestProcessRequiresProvider(t *testing.T) {
	fx := newFixture(t, nil, processing.Options{})
	req := testsupport.NewPedido(t, fx.store, "Pluto", "user-1", "chat-1")
	if _, err := fx.processor.Process(context.Background(), req, "  "); err == nil {
		t.Fatal("expected validation error for empty provider")
	}
}

func TestProcessAfterCreateOnlyForAutoProviders(t *testing.T) {
	fx := newFixture(t, classify.Heuristic{}, processing.Options{})
	ctx := context.Background()
	if _, err := fx.store.UpsertProvider(ctx, library.Provider{ChannelID: "manual", Name: "Manual"}); err != nil {
		t.Fatalf("UpsertProvider: %v", err)
	}
	if _, err := fx.store.UpsertProvider(ctx, library.Provider{ChannelID: "auto", Name: "Auto", AutoProcessPedidos: true}); err != nil {
		t.Fatalf("UpsertProvider: %v", err)
	}
	fx.addItem(library.Item{ProviderChannelID: "auto", Title: "Hellsing"})

	tests := []struct {
		channel string
		wantRan bool
	}{
		{channel: "plain-chat", wantRan: false},
		{channel: "manual", wantRan: false},
		{channel: "auto", wantRan: true},
	}
	for _, tc := range tests {
		t.Run(tc.channel, func(t *testing.T) {
			req := testsupport.NewPedido(t, fx.store, "Hellsing", "user-1", tc.channel)
			outcome, ran, err := fx.processor.ProcessAfterCreate(ctx, req)
			if err != nil {
				t.Fatalf("ProcessAfterCreate: %v", err)
			}
			if ran != tc.wantRan {
				t.Fatalf("expected ran=%v, got %v", tc.wantRan, ran)
			}
			if tc.wantRan && outcome.Request.State != pedidos.StateEnProceso {
				t.Fatalf("expected auto processing to match, got %s", outcome.Request.State)
			}
		})
	}
}
