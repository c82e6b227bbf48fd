package guard_test

import (
	"testing"
	"time"

	"pedidobot/internal/guard"
	"pedidobot/internal/logging"
)

func TestShouldSkipFalseThenTrueThenFalseAfterWindow(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	g := guard.New(guard.Limits{}, logging.NewNop())
	g.Cache().SetClock(func() time.Time { return now })

	key := guard.Key{Command: "pedido", ChannelID: "grupo", SenderID: "alice", MessageID: "ABC123"}
	if g.ShouldSkip(key) {
		t.Fatal("first call should proceed")
	}
	if !g.ShouldSkip(key) {
		t.Fatal("second call within window should be skipped")
	}
	now = now.Add(2*time.Minute + time.Second)
	if g.ShouldSkip(key) {
		t.Fatal("call after window should proceed")
	}

	stats := g.Stats()
	if stats.Suppressed != 1 || stats.Checked != 3 || stats.Size != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestShouldSkipWithoutMessageIDNeverSuppresses(t *testing.T) {
	g := guard.New(guard.Limits{}, nil)
	key := guard.Key{Command: "votar", ChannelID: "grupo", SenderID: "alice"}
	for i := 0; i < 3; i++ {
		if g.ShouldSkip(key) {
			t.Fatalf("call %d suppressed without message id", i)
		}
	}
	if stats := g.Stats(); stats.Size != 0 || stats.Unkeyed != 3 {
		t.Fatalf("unkeyed calls must not be recorded: %+v", stats)
	}
}

func TestKeysDifferByEveryField(t *testing.T) {
	g := guard.New(guard.Limits{}, nil)
	base := guard.Key{Command: "votar", ChannelID: "grupo", SenderID: "alice", MessageID: "m1"}
	variants := []guard.Key{
		base,
		{Command: "cancelarpedido", ChannelID: "grupo", SenderID: "alice", MessageID: "m1"},
		{Command: "votar", ChannelID: "otro", SenderID: "alice", MessageID: "m1"},
		{Command: "votar", ChannelID: "grupo", SenderID: "bob", MessageID: "m1"},
		{Command: "votar", ChannelID: "grupo", SenderID: "alice", MessageID: "m2"},
	}
	for _, key := range variants {
		if g.ShouldSkip(key) {
			t.Fatalf("distinct key %q suppressed", key.String())
		}
	}
	if key := base.String(); key != "5:votar|5:grupo|5:alice|2:m1" {
		t.Fatalf("unexpected key format %q", key)
	}
}

func TestKeysWithSeparatorInIDsDoNotCollide(t *testing.T) {
	g := guard.New(guard.Limits{}, nil)
	first := guard.Key{Command: "votar", ChannelID: "a|b", SenderID: "c", MessageID: "m1"}
	second := guard.Key{Command: "votar", ChannelID: "a", SenderID: "b|c", MessageID: "m1"}
	if first.String() == second.String() {
		t.Fatalf("keys collide: %q", first.String())
	}
	if g.ShouldSkip(first) {
		t.Fatal("first sighting should proceed")
	}
	if g.ShouldSkip(second) {
		t.Fatal("different sender split must not be suppressed")
	}
}
