// Package audit emits the append-only action trail as structured JSON, one
// event per committed action. The store keeps the authoritative log; this
// stream exists for operators tailing a room.
package audit

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/cardroom/cardroom/internal/game"
)

// Log writes action records as zerolog JSON events.
type Log struct {
	logger zerolog.Logger
}

// New creates an audit log writing to w.
func New(w io.Writer) *Log {
	return &Log{
		logger: zerolog.New(w).With().
			Timestamp().
			Str("logger_name", "cardroom::audit").
			Logger(),
	}
}

// Record emits one committed action.
func (l *Log) Record(rec game.ActionRecord) {
	l.logger.Info().
		Str("room", rec.Room).
		Int("hand", rec.Hand).
		Int("seat", rec.Seat).
		Str("kind", string(rec.Kind)).
		Int("amount", rec.Amount).
		Time("at", rec.At).
		Msg("action")
}

// RecordAll emits a batch of committed actions in order.
func (l *Log) RecordAll(recs []game.ActionRecord) {
	for _, rec := range recs {
		l.Record(rec)
	}
}
