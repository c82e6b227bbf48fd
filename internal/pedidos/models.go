package pedidos

import (
	"context"
	"slices"
	"strings"
	"time"
)

// State is the lifecycle state of a request.
type State string

const (
	StatePendiente  State = "pendiente"
	StateEnProceso  State = "en_proceso"
	StateCompletado State = "completado"
	StateCancelado  State = "cancelado"
)

var allStates = []State{StatePendiente, StateEnProceso, StateCompletado, StateCancelado}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	return slices.Clone(allStates)
}

// ParseState converts user input into a known State. Spaces and dashes are
// accepted in place of underscores.
func ParseState(value string) (State, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	state := State(normalized)
	if slices.Contains(allStates, state) {
		return state, true
	}
	return "", false
}

// IsClosed reports whether the state is terminal for normal flow.
func (s State) IsClosed() bool {
	return s == StateCompletado || s == StateCancelado
}

// Label returns the user-facing text for a state.
func (s State) Label() string {
	switch s {
	case StateEnProceso:
		return "en proceso"
	default:
		return string(s)
	}
}

// Priority orders requests in listings.
type Priority string

const (
	PriorityAlta  Priority = "alta"
	PriorityMedia Priority = "media"
	PriorityBaja  Priority = "baja"
)

// ParsePriority accepts Spanish and English names and their initials. Empty
// input yields PriorityMedia.
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return PriorityMedia, true
	case "alta", "high", "a", "h":
		return PriorityAlta, true
	case "media", "medium", "m":
		return PriorityMedia, true
	case "baja", "low", "b", "l":
		return PriorityBaja, true
	default:
		return "", false
	}
}

// Rank returns the sort position of the priority, alta first.
func (p Priority) Rank() int {
	switch p {
	case PriorityAlta:
		return 0
	case PriorityBaja:
		return 2
	default:
		return 1
	}
}

// Attachment is a file submitted with a request.
type Attachment struct {
	Path         string `json:"path"`
	Mime         string `json:"mime"`
	OriginalName string `json:"original_name"`
}

// Match is one ranked library item recorded on a request.
type Match struct {
	LibraryItemID int64   `json:"library_item_id"`
	Score         float64 `json:"score"`
}

// Processing records the latest processing attempt.
type Processing struct {
	ProcessedAt       time.Time `json:"processed_at"`
	ProviderChannelID string    `json:"provider_channel_id"`
	Query             string    `json:"query"`
	Matches           []Match   `json:"matches"`
	Note              string    `json:"note"`
}

// Request is a user-submitted content request.
type Request struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Priority        Priority    `json:"priority"`
	State           State       `json:"state"`
	RequesterID     string      `json:"requester_id"`
	OriginChannelID string      `json:"origin_channel_id"`
	Votes           int         `json:"votes"`
	VoterIDs        []string    `json:"voter_ids"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Attachment      *Attachment `json:"attachment,omitempty"`
	Processing      *Processing `json:"processing,omitempty"`
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.VoterIDs = slices.Clone(r.VoterIDs)
	if r.Attachment != nil {
		att := *r.Attachment
		cp.Attachment = &att
	}
	if r.Processing != nil {
		proc := *r.Processing
		proc.Matches = slices.Clone(r.Processing.Matches)
		cp.Processing = &proc
	}
	return &cp
}

// HasVoted reports whether voterID already voted.
func (r *Request) HasVoted(voterID string) bool {
	return slices.Contains(r.VoterIDs, voterID)
}

// DisplayTitle falls back to the attachment name for attachment-only requests.
func (r *Request) DisplayTitle() string {
	if title := strings.TrimSpace(r.Title); title != "" {
		return title
	}
	if r.Attachment != nil && r.Attachment.OriginalName != "" {
		return r.Attachment.OriginalName
	}
	return "(sin titulo)"
}

// Draft holds the user-supplied fields for a new request.
type Draft struct {
	Title           string
	Description     string
	Priority        Priority
	RequesterID     string
	OriginChannelID string
	Attachment      *Attachment
}

// Actor is the caller of a transition.
type Actor struct {
	ID         string
	Privileged bool
}

// ListFilter narrows List results.
type ListFilter struct {
	RequesterID      string
	States           []State
	ExcludeCancelled bool
	// Limit of zero means no limit.
	Limit int
}

// Repository stores requests.
type Repository interface {
	Create(ctx context.Context, draft Draft) (*Request, error)
	Get(ctx context.Context, id int64) (*Request, error)
	// Update applies fn to the stored request atomically. Concurrent updates
	// of the same id are serialized. When fn returns an error nothing is written.
	Update(ctx context.Context, id int64, fn func(*Request) error) (*Request, error)
	// List returns requests ordered by priority, then votes descending, then id.
	List(ctx context.Context, filter ListFilter) ([]*Request, error)
}
