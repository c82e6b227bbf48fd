package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pedidobot/internal/library"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/services"
	"pedidobot/internal/store"
	"pedidobot/internal/testsupport"
)

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first := testsupport.NewPedido(t, st, "Berserk", "alice", "grupo")
	second := testsupport.NewPedido(t, st, "Vagabond", "bob", "grupo")
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("ids not increasing: %d then %d", first.ID, second.ID)
	}

	fetched, err := st.Get(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Title != "Vagabond" || fetched.State != pedidos.StatePendiente || fetched.Votes != 0 {
		t.Fatalf("unexpected fetched request %+v", fetched)
	}
}

func TestIDCounterSeededFromExistingRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var last int64
	for i := 0; i < 3; i++ {
		last = testsupport.NewPedido(t, st, "Naruto", "alice", "grupo").ID
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	next := testsupport.NewPedido(t, reopened, "Bleach", "alice", "grupo")
	if next.ID != last+1 {
		t.Fatalf("id after reopen = %d, want %d", next.ID, last+1)
	}
}

func TestCreateRejectsEmptyDraft(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := st.Create(context.Background(), pedidos.Draft{RequesterID: "alice"})
	if !errors.Is(err, pedidos.ErrEmptyRequest) {
		t.Fatalf("expected ErrEmptyRequest, got %v", err)
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := st.Get(context.Background(), 404)
	if !errors.Is(err, pedidos.ErrNotFound) || services.Kind(err) != services.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = st.Update(context.Background(), 404, func(*pedidos.Request) error { return nil })
	if !errors.Is(err, pedidos.ErrNotFound) {
		t.Fatalf("expected not found from Update, got %v", err)
	}
}

func TestUpdatePersistsAndRoundTripsNestedFields(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	req := testsupport.NewPedido(t, st, "Solo Leveling", "alice", "grupo")
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	_, err := st.Update(ctx, req.ID, func(r *pedidos.Request) error {
		if err := r.Vote("bob", now); err != nil {
			return err
		}
		r.ApplyProcessing(pedidos.Processing{
			ProviderChannelID: "prov",
			Query:             "solo leveling",
			Matches:           []pedidos.Match{{LibraryItemID: 3, Score: 98}},
			Note:              "1 coincidencia",
		}, now)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	fetched, err := st.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.State != pedidos.StateEnProceso {
		t.Fatalf("state = %q", fetched.State)
	}
	if fetched.Votes != 1 || len(fetched.VoterIDs) != 1 || fetched.VoterIDs[0] != "bob" {
		t.Fatalf("votes not persisted: %d %v", fetched.Votes, fetched.VoterIDs)
	}
	if fetched.Processing == nil || len(fetched.Processing.Matches) != 1 || fetched.Processing.Matches[0].LibraryItemID != 3 {
		t.Fatalf("processing not persisted: %+v", fetched.Processing)
	}
	if !fetched.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %v, want %v", fetched.UpdatedAt, now)
	}
}

func TestUpdateErrorLeavesRowUntouched(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	req := testsupport.NewPedido(t, st, "Berserk", "alice", "grupo")

	_, err := st.Update(ctx, req.ID, func(r *pedidos.Request) error {
		r.Title = "mutated"
		return r.Cancel(pedidos.Actor{ID: "mallory"}, time.Now())
	})
	if !errors.Is(err, pedidos.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	fetched, _ := st.Get(ctx, req.ID)
	if fetched.Title != "Berserk" || fetched.State != pedidos.StatePendiente {
		t.Fatalf("row modified after rejected update: %+v", fetched)
	}
}

func TestConcurrentVotesAreNotLost(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	req := testsupport.NewPedido(t, st, "One Piece", "alice", "grupo")

	const voters = 12
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			voter := string(rune('a'+n)) + "-voter"
			_, err := st.Update(ctx, req.ID, func(r *pedidos.Request) error {
				return r.Vote(voter, time.Now())
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("vote failed: %v", err)
	}

	fetched, err := st.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Votes != voters || len(fetched.VoterIDs) != voters {
		t.Fatalf("expected %d votes, got %d (%v)", voters, fetched.Votes, fetched.VoterIDs)
	}
}

func TestListOrderingAndFilters(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	mk := func(title string, priority pedidos.Priority, requester string) *pedidos.Request {
		req, err := st.Create(ctx, pedidos.Draft{Title: title, Priority: priority, RequesterID: requester, OriginChannelID: "grupo"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return req
	}
	low := mk("baja", pedidos.PriorityBaja, "alice")
	mediaA := mk("media-a", pedidos.PriorityMedia, "bob")
	mediaB := mk("media-b", pedidos.PriorityMedia, "alice")
	high := mk("alta", pedidos.PriorityAlta, "carol")
	cancelled := mk("cancelada", pedidos.PriorityAlta, "alice")

	if _, err := st.Update(ctx, mediaB.ID, func(r *pedidos.Request) error { return r.Vote("zed", time.Now()) }); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := st.Update(ctx, cancelled.ID, func(r *pedidos.Request) error {
		return r.Cancel(pedidos.Actor{ID: "alice"}, time.Now())
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	list, err := st.List(ctx, pedidos.ListFilter{ExcludeCancelled: true, Limit: 15})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []int64{high.ID, mediaB.ID, mediaA.ID, low.ID}
	if len(list) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: got id %d want %d", i, list[i].ID, id)
		}
	}

	own, err := st.List(ctx, pedidos.ListFilter{RequesterID: "alice"})
	if err != nil {
		t.Fatalf("List own: %v", err)
	}
	if len(own) != 3 {
		t.Fatalf("expected 3 requests for alice, got %d", len(own))
	}

	counts, err := st.CountByState(ctx)
	if err != nil {
		t.Fatalf("CountByState: %v", err)
	}
	if counts[pedidos.StateCancelado] != 1 || counts[pedidos.StatePendiente] != 4 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestLibraryItemsByProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.AddLibraryItem(t, cfg, st, library.Item{ProviderChannelID: "prov-a", Title: "Solo Leveling", Chapter: "10", Tags: []string{"manhwa"}, FilePath: "prov-a/solo-10.pdf"}, 64)
	testsupport.AddLibraryItem(t, cfg, st, library.Item{ProviderChannelID: "prov-b", Title: "Berserk"}, 0)

	items, err := st.ListByProvider(ctx, "prov-a")
	if err != nil {
		t.Fatalf("ListByProvider: %v", err)
	}
	if len(items) != 1 || items[0].ID != a.ID || items[0].Chapter != "10" || items[0].Tags[0] != "manhwa" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].SizeBytes != 64 {
		t.Fatalf("size = %d", items[0].SizeBytes)
	}

	if _, err := st.GetItem(ctx, 999); !errors.Is(err, library.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := st.AddItem(ctx, library.Item{Title: "sin proveedor"}); services.Kind(err) != services.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProviderUpsert(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	missing, err := st.Provider(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected nil provider, got %+v %v", missing, err)
	}
	if _, err := st.UpsertProvider(ctx, library.Provider{ChannelID: "prov", Name: "Mangas", AutoProcessPedidos: true}); err != nil {
		t.Fatalf("UpsertProvider: %v", err)
	}
	if _, err := st.UpsertProvider(ctx, library.Provider{ChannelID: "prov", Name: "Mangas HD"}); err != nil {
		t.Fatalf("UpsertProvider again: %v", err)
	}
	provider, err := st.Provider(ctx, "prov")
	if err != nil {
		t.Fatalf("Provider: %v", err)
	}
	if provider.Name != "Mangas HD" || provider.AutoProcessPedidos {
		t.Fatalf("upsert did not replace settings: %+v", provider)
	}
	all, err := st.Providers(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("Providers = %v, %v", all, err)
	}
}
