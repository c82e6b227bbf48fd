package pedidos_test

import (
	"errors"
	"testing"
	"time"

	"pedidobot/internal/pedidos"
	"pedidobot/internal/services"
)

var (
	created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later   = created.Add(time.Minute)
)

func newRequest(t *testing.T) *pedidos.Request {
	t.Helper()
	req, err := pedidos.New(pedidos.Draft{Title: "Solo Leveling", RequesterID: "alice", OriginChannelID: "grupo"}, created)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req.ID = 1
	return req
}

func TestNewStartsPendienteWithoutVotes(t *testing.T) {
	req := newRequest(t)
	if req.State != pedidos.StatePendiente {
		t.Fatalf("state = %q, want pendiente", req.State)
	}
	if req.Votes != 0 || len(req.VoterIDs) != 0 {
		t.Fatalf("expected no votes, got %d %v", req.Votes, req.VoterIDs)
	}
	if req.Priority != pedidos.PriorityMedia {
		t.Fatalf("priority = %q, want media", req.Priority)
	}
	if !req.CreatedAt.Equal(created) || !req.UpdatedAt.Equal(created) {
		t.Fatalf("unexpected timestamps %v %v", req.CreatedAt, req.UpdatedAt)
	}
}

func TestNewRequiresTitleOrAttachment(t *testing.T) {
	_, err := pedidos.New(pedidos.Draft{Title: "   "}, created)
	if !errors.Is(err, pedidos.ErrEmptyRequest) {
		t.Fatalf("expected ErrEmptyRequest, got %v", err)
	}
	if services.Kind(err) != services.KindValidation {
		t.Fatalf("expected validation kind, got %q", services.Kind(err))
	}

	req, err := pedidos.New(pedidos.Draft{Attachment: &pedidos.Attachment{Path: "/tmp/x.pdf", OriginalName: "x.pdf"}}, created)
	if err != nil {
		t.Fatalf("attachment-only request rejected: %v", err)
	}
	if req.DisplayTitle() != "x.pdf" {
		t.Fatalf("DisplayTitle = %q", req.DisplayTitle())
	}
}

func TestVoteRejectsDuplicateVoter(t *testing.T) {
	req := newRequest(t)
	if err := req.Vote("bob", later); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	err := req.Vote("bob", later.Add(time.Second))
	if !errors.Is(err, pedidos.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if req.Votes != 1 || len(req.VoterIDs) != 1 {
		t.Fatalf("votes changed after rejection: %d %v", req.Votes, req.VoterIDs)
	}
	if !req.UpdatedAt.Equal(later) {
		t.Fatalf("rejected vote must not touch UpdatedAt: %v", req.UpdatedAt)
	}
}

func TestVoteRejectedOnClosedStates(t *testing.T) {
	for _, state := range []pedidos.State{pedidos.StateCompletado, pedidos.StateCancelado} {
		req := newRequest(t)
		req.State = state
		if err := req.Vote("bob", later); !errors.Is(err, pedidos.ErrClosed) {
			t.Fatalf("state %s: expected ErrClosed, got %v", state, err)
		}
		if req.Votes != 0 {
			t.Fatalf("state %s: votes changed", state)
		}
	}
}

func TestApplyProcessingWithoutMatchesKeepsState(t *testing.T) {
	req := newRequest(t)
	req.ApplyProcessing(pedidos.Processing{Query: "solo leveling", Note: "sin coincidencias"}, later)
	if req.State != pedidos.StatePendiente {
		t.Fatalf("state = %q, want pendiente", req.State)
	}
	if req.Processing == nil || req.Processing.Note != "sin coincidencias" {
		t.Fatalf("processing metadata not recorded: %+v", req.Processing)
	}
	if !req.Processing.ProcessedAt.Equal(later) {
		t.Fatalf("ProcessedAt defaulted wrong: %v", req.Processing.ProcessedAt)
	}
}

func TestApplyProcessingWithMatchesMovesToEnProceso(t *testing.T) {
	req := newRequest(t)
	req.ApplyProcessing(pedidos.Processing{Matches: []pedidos.Match{{LibraryItemID: 4, Score: 98}}}, later)
	if req.State != pedidos.StateEnProceso {
		t.Fatalf("state = %q, want en_proceso", req.State)
	}

	req.ApplyProcessing(pedidos.Processing{Note: "sin coincidencias"}, later.Add(time.Minute))
	if req.State != pedidos.StateEnProceso {
		t.Fatalf("reprocess without matches should not roll back state, got %q", req.State)
	}
	if len(req.Processing.Matches) != 0 {
		t.Fatalf("processing metadata should be overwritten: %+v", req.Processing)
	}
}

func TestApplyProcessingDoesNotReopenClosed(t *testing.T) {
	req := newRequest(t)
	req.State = pedidos.StateCompletado
	req.ApplyProcessing(pedidos.Processing{Matches: []pedidos.Match{{LibraryItemID: 1, Score: 50}}}, later)
	if req.State != pedidos.StateCompletado {
		t.Fatalf("state = %q, want completado", req.State)
	}
	if req.Processing == nil {
		t.Fatal("processing metadata should still be recorded")
	}
}

func TestCancelAuthorization(t *testing.T) {
	req := newRequest(t)
	err := req.Cancel(pedidos.Actor{ID: "mallory"}, later)
	if !errors.Is(err, pedidos.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if services.Kind(err) != services.KindAuthorization {
		t.Fatalf("expected authorization kind, got %q", services.Kind(err))
	}
	if req.State != pedidos.StatePendiente {
		t.Fatalf("state changed after rejected cancel: %q", req.State)
	}

	if err := req.Cancel(pedidos.Actor{ID: "alice"}, later); err != nil {
		t.Fatalf("requester cancel: %v", err)
	}
	if req.State != pedidos.StateCancelado {
		t.Fatalf("state = %q, want cancelado", req.State)
	}

	other := newRequest(t)
	other.State = pedidos.StateCompletado
	if err := other.Cancel(pedidos.Actor{ID: "admin", Privileged: true}, later); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if other.State != pedidos.StateCancelado {
		t.Fatalf("admin cancel should apply regardless of prior state, got %q", other.State)
	}
}

func TestSetStateRequiresPrivilege(t *testing.T) {
	req := newRequest(t)
	if err := req.SetState(pedidos.Actor{ID: "alice"}, pedidos.StateCompletado, later); !errors.Is(err, pedidos.ErrNotPrivileged) {
		t.Fatalf("expected ErrNotPrivileged, got %v", err)
	}
	admin := pedidos.Actor{ID: "admin", Privileged: true}
	if err := req.SetState(admin, pedidos.StateCancelado, later); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if err := req.SetState(admin, pedidos.StatePendiente, later); err != nil {
		t.Fatalf("admin may reopen: %v", err)
	}
	if req.State != pedidos.StatePendiente {
		t.Fatalf("state = %q, want pendiente", req.State)
	}
	if err := req.SetState(admin, "archivado", later); !errors.Is(err, pedidos.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestParsePriorityAndState(t *testing.T) {
	cases := map[string]pedidos.Priority{"": pedidos.PriorityMedia, "ALTA": pedidos.PriorityAlta, "low": pedidos.PriorityBaja, "m": pedidos.PriorityMedia}
	for input, want := range cases {
		got, ok := pedidos.ParsePriority(input)
		if !ok || got != want {
			t.Fatalf("ParsePriority(%q) = %q, %v", input, got, ok)
		}
	}
	if _, ok := pedidos.ParsePriority("urgente"); ok {
		t.Fatal("expected unknown priority to fail")
	}
	if state, ok := pedidos.ParseState("En Proceso"); !ok || state != pedidos.StateEnProceso {
		t.Fatalf("ParseState = %q, %v", state, ok)
	}
}

func TestCloneIsDeep(t *testing.T) {
	req := newRequest(t)
	_ = req.Vote("bob", later)
	req.ApplyProcessing(pedidos.Processing{Matches: []pedidos.Match{{LibraryItemID: 1}}}, later)

	cp := req.Clone()
	cp.VoterIDs[0] = "changed"
	cp.Processing.Matches[0].LibraryItemID = 99
	if req.VoterIDs[0] != "bob" || req.Processing.Matches[0].LibraryItemID != 1 {
		t.Fatal("clone shares backing arrays with original")
	}
}
