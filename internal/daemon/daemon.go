package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"pedidobot/internal/classify"
	"pedidobot/internal/commands"
	"pedidobot/internal/config"
	"pedidobot/internal/delivery"
	"pedidobot/internal/gateway"
	"pedidobot/internal/guard"
	"pedidobot/internal/logging"
	"pedidobot/internal/notifications"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/processing"
	"pedidobot/internal/store"
)

const guardSweepInterval = time.Minute

// Daemon owns the server components and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	guard      *guard.Guard
	emitter    notifications.Emitter
	processor  *processing.Processor
	dispatcher *commands.Dispatcher
	gateway    *gateway.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	DatabasePath string
	LockFilePath string
	Counts       map[pedidos.State]int
	Guard        guard.Stats
}

type options struct {
	replier    delivery.Replier
	classifier classify.Classifier
	emitter    notifications.Emitter
}

// Option customizes daemon wiring.
type Option func(*options)

// WithReplier replaces the outbound bridge client.
func WithReplier(r delivery.Replier) Option {
	return func(o *options) { o.replier = r }
}

// WithClassifier replaces the configured classifier chain.
func WithClassifier(c classify.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithEmitter replaces the configured event emitters.
func WithEmitter(e notifications.Emitter) Option {
	return func(o *options) { o.emitter = e }
}

// New opens the store and wires every component from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	emitter := o.emitter
	if emitter == nil {
		emitter, err = notifications.NewFromConfig(cfg)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("notifications: %w", err)
		}
	}
	classifier := o.classifier
	if classifier == nil {
		classifier = BuildClassifier(cfg)
	}
	replier := o.replier
	if replier == nil {
		replier = delivery.NewBridgeClientFromConfig(cfg)
	}

	g := guard.New(GuardLimits(cfg), logger)
	proc := processing.New(processing.Deps{
		Requests:   st,
		Catalog:    st,
		Providers:  st,
		Classifier: classifier,
		Emitter:    emitter,
		Logger:     logger,
	}, processing.Options{
		Rank:              RankOptions(cfg),
		ClassifierTimeout: cfg.ClassifierTimeout(),
	})
	dispatcher := commands.NewDispatcher(commands.DefaultRegistry(), g, replier, commands.RolesFunc(cfg.IsAdmin), commands.Env{
		Requests:        st,
		Catalog:         st,
		Providers:       st,
		Processor:       proc,
		Files:           delivery.NewFileSender(replier, cfg.Paths.LibraryDir, cfg.MaxSendBytes()),
		Emitter:         notifications.BestEffort(emitter, logger),
		Logger:          logger,
		Prefix:          cfg.Gateway.CommandPrefix,
		DefaultProvider: cfg.Matching.DefaultProvider,
	})

	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      st,
		guard:      g,
		emitter:    emitter,
		processor:  proc,
		dispatcher: dispatcher,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	d.gateway = gateway.New(cfg, gateway.Deps{
		Dispatcher: dispatcher,
		Requests:   st,
		Health:     st.Ping,
		Logger:     logger,
	})
	return d, nil
}

// Start acquires the lock, starts the gateway, and begins guard housekeeping.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another pedidobot instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.gateway.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start gateway: %w", err)
	}
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.sweepLoop(runCtx, d.done)

	d.running.Store(true)
	d.logger.Info("pedidobot daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.gateway.Addr()),
	)
	return nil
}

func (d *Daemon) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(guardSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.guard.Cache().MaybeSweep()
		}
	}
}

// Stop stops the gateway and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.gateway.Stop()
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("pedidobot daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if closer, ok := d.emitter.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// Dispatcher exposes the command dispatcher.
func (d *Daemon) Dispatcher() *commands.Dispatcher { return d.dispatcher }

// Processor exposes the processing orchestrator.
func (d *Daemon) Processor() *processing.Processor { return d.processor }

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Address:      d.gateway.Addr(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Guard:        d.guard.Stats(),
	}
	if counts, err := d.store.CountByState(ctx); err == nil {
		status.Counts = counts
	} else {
		d.logger.Warn("count pedidos failed", logging.Error(err))
	}
	return status
}
