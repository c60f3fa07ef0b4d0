package book

import (
	"time"

	"us30bot/internal/position"
	"us30bot/internal/scoring"
	"us30bot/internal/signal"

	"github.com/shopspring/decimal"
)

// OpType names a book operation.
type OpType string

const (
	OpRecordSignal    OpType = "record_signal"
	OpResetSignals    OpType = "reset_signals"
	OpOpenPosition    OpType = "open_position"
	OpOpenBatch       OpType = "open_batch"
	OpClosePositions  OpType = "close_positions"
	OpCloseAll        OpType = "close_all"
	OpUpdatePositions OpType = "update_positions"
	OpSetOpenPrice    OpType = "set_open_price"
)

// Envelope carries one operation into the actor loop.
type Envelope struct {
	ID      string      `json:"id"`
	Type    OpType      `json:"type"`
	Payload any         `json:"payload"`
	ReplyCh chan Result `json:"-"`
}

// Result is what a handler returned.
type Result struct {
	Value any
	Err   error
}

type RecordSignalPayload struct {
	Classified signal.Classified `json:"classified"`
	RawText    string            `json:"rawText"`
	ObservedAt time.Time         `json:"observedAt"`
}

// SignalOutcome is the recorded signal and the score recomputed right after.
type SignalOutcome struct {
	Signal signal.Signal    `json:"signal"`
	Score  scoring.Snapshot `json:"score"`
}

type OpenPositionPayload struct {
	Position position.Position `json:"position"`
}

type OpenBatchPayload struct {
	Text string `json:"text"`
}

type ClosePayload struct {
	Match   position.MatchSpec `json:"match"`
	Percent decimal.Decimal    `json:"percent"`
	Exit    *decimal.Decimal   `json:"exit,omitempty"`
}

type CloseAllPayload struct {
	Direction *position.Direction `json:"direction,omitempty"`
}

type UpdatePayload struct {
	Spec position.UpdateSpec `json:"spec"`
}

type SetOpenPricePayload struct {
	Price decimal.Decimal `json:"price"`
}
