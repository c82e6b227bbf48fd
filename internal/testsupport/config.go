package testsupport

import (
	"path/filepath"
	"testing"

	"pedidobot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Gateway.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAdmins marks sender ids as privileged.
func WithAdmins(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Access.Admins = append(b.cfg.Access.Admins, ids...)
	}
}

// WithMaxSendMB sets the document size limit.
func WithMaxSendMB(mb int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Files.MaxSendMB = mb
	}
}

// WithGatewayToken sets the webhook bearer token.
func WithGatewayToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gateway.Token = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
