package pedidos

import (
	"strings"
	"time"
)

// New builds a pendiente request from draft. The ID is assigned by the repository.
func New(draft Draft, now time.Time) (*Request, error) {
	title := strings.TrimSpace(draft.Title)
	hasAttachment := draft.Attachment != nil && strings.TrimSpace(draft.Attachment.Path) != ""
	if title == "" && !hasAttachment {
		return nil, ErrEmptyRequest
	}
	priority := draft.Priority
	if priority == "" {
		priority = PriorityMedia
	}
	if _, ok := ParsePriority(string(priority)); !ok {
		return nil, ErrInvalidPriority
	}
	req := &Request{
		Title:           title,
		Description:     strings.TrimSpace(draft.Description),
		Priority:        priority,
		State:           StatePendiente,
		RequesterID:     strings.TrimSpace(draft.RequesterID),
		OriginChannelID: strings.TrimSpace(draft.OriginChannelID),
		VoterIDs:        []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if hasAttachment {
		att := *draft.Attachment
		req.Attachment = &att
	}
	return req, nil
}

// Vote records one vote from voterID. State is unchanged.
func (r *Request) Vote(voterID string, now time.Time) error {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return ErrMissingActor
	}
	if r.State.IsClosed() {
		return ErrClosed
	}
	if r.HasVoted(voterID) {
		return ErrAlreadyVoted
	}
	r.VoterIDs = append(r.VoterIDs, voterID)
	r.Votes = len(r.VoterIDs)
	r.UpdatedAt = now
	return nil
}

// ApplyProcessing records the latest processing attempt. A non-empty match
// list moves pendiente or en_proceso requests to en_proceso; closed requests
// keep their state. The metadata is always overwritten.
func (r *Request) ApplyProcessing(p Processing, now time.Time) {
	if p.ProcessedAt.IsZero() {
		p.ProcessedAt = now
	}
	r.Processing = &p
	if len(p.Matches) > 0 && !r.State.IsClosed() {
		r.State = StateEnProceso
	}
	r.UpdatedAt = now
}

// Cancel closes the request. Only the requester or a privileged actor may
// cancel; the prior state is not checked.
func (r *Request) Cancel(actor Actor, now time.Time) error {
	if !actor.Privileged && (actor.ID == "" || actor.ID != r.RequesterID) {
		return ErrNotOwner
	}
	r.State = StateCancelado
	r.UpdatedAt = now
	return nil
}

// SetState assigns any valid state. Privileged actors only.
func (r *Request) SetState(actor Actor, state State, now time.Time) error {
	if !actor.Privileged {
		return ErrNotPrivileged
	}
	parsed, ok := ParseState(string(state))
	if !ok {
		return ErrInvalidState
	}
	r.State = parsed
	r.UpdatedAt = now
	return nil
}
