package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"pedidobot/internal/config"
	"pedidobot/internal/library"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewPedido creates a request for tests.
func NewPedido(t testing.TB, st *store.Store, title, requester, channel string) *pedidos.Request {
	t.Helper()

	req, err := st.Create(context.Background(), pedidos.Draft{Title: title, RequesterID: requester, OriginChannelID: channel})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return req
}

// AddLibraryItem records item, writing a backing file of size bytes under the
// library root when item.FilePath is relative.
func AddLibraryItem(t testing.TB, cfg *config.Config, st *store.Store, item library.Item, size int64) *library.Item {
	t.Helper()

	if item.FilePath != "" && !filepath.IsAbs(item.FilePath) {
		item.FilePath = filepath.Join(cfg.Paths.LibraryDir, item.FilePath)
		WriteFile(t, item.FilePath, size)
		item.SizeBytes = size
	}
	added, err := st.AddItem(context.Background(), item)
	if err != nil {
		t.Fatalf("store.AddItem: %v", err)
	}
	return added
}
