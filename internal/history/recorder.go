package history

import (
	"context"

	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/session"
)

// NewEntry builds an entry from an evaluation outcome
func NewEntry(ev session.Evaluation) Entry {
	entry := Entry{
		SessionID:  ev.SessionID,
		Expression: ev.Expression,
		Postfix:    calc.FormatTokens(ev.Postfix),
		CreatedAt:  ev.At,
	}
	if ev.Err != nil {
		entry.ErrorKind = calc.KindOf(ev.Err).String()
		entry.Error = ev.Err.Error()
	} else {
		result := ev.Result
		entry.Result = &result
	}
	return entry
}

// Recorder stores session evaluations and keeps the table bounded
type Recorder struct {
	store    *Store
	limit    int
	onRecord func(Entry)
}

// NewRecorder returns a session.Recorder backed by store. limit bounds the
// number of kept entries (0 keeps all); onRecord, if set, is called with
// every stored entry.
func NewRecorder(store *Store, limit int, onRecord func(Entry)) *Recorder {
	return &Recorder{store: store, limit: limit, onRecord: onRecord}
}

// RecordEvaluation implements session.Recorder
func (r *Recorder) RecordEvaluation(ctx context.Context, ev session.Evaluation) error {
	entry, err := r.store.Record(ctx, NewEntry(ev))
	if err != nil {
		return err
	}
	if _, err := r.store.Prune(ctx, r.limit); err != nil {
		return err
	}
	if r.onRecord != nil {
		r.onRecord(entry)
	}
	return nil
}

var _ session.Recorder = (*Recorder)(nil)
