package gormstore

import (
	"time"

	"us30bot/internal/position"
	"us30bot/internal/signal"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type metaModel struct {
	Key           string `gorm:"column:key;primaryKey"`
	Value         string `gorm:"column:value"`
	UpdatedAtUnix int64  `gorm:"column:updated_at"`
}

func (metaModel) TableName() string { return "book_meta" }

type positionModel struct {
	ID           string `gorm:"column:id;primaryKey"`
	Seq          int    `gorm:"column:seq;index"`
	Symbol       string `gorm:"column:symbol;index:idx_position_match,priority:1"`
	Direction    string `gorm:"column:direction;index:idx_position_match,priority:2"`
	EntryPrice   string `gorm:"column:entry_price;index:idx_position_match,priority:3"`
	StopLoss     string `gorm:"column:stop_loss"`
	TakeProfit   string `gorm:"column:take_profit"`
	LotSize      string `gorm:"column:lot_size"`
	Score        *int   `gorm:"column:score"`
	Tag          string `gorm:"column:tag"`
	OpenedAtUnix int64  `gorm:"column:opened_at"`
}

func (positionModel) TableName() string { return "positions" }

func newPositionModel(seq int, p position.Position) positionModel {
	return positionModel{
		ID:           p.ID,
		Seq:          seq,
		Symbol:       p.Symbol,
		Direction:    string(p.Direction),
		EntryPrice:   p.EntryPrice.String(),
		StopLoss:     p.StopLoss.String(),
		TakeProfit:   p.TakeProfit.String(),
		LotSize:      p.LotSize.String(),
		Score:        p.Score,
		Tag:          p.Tag,
		OpenedAtUnix: p.OpenedAt.UnixMilli(),
	}
}

func (m positionModel) toPosition() (position.Position, error) {
	dir, err := position.ParseDirection(m.Direction)
	if err != nil {
		return position.Position{}, err
	}
	entry, err := decimal.NewFromString(m.EntryPrice)
	if err != nil {
		return position.Position{}, err
	}
	lot, err := decimal.NewFromString(m.LotSize)
	if err != nil {
		return position.Position{}, err
	}
	sl, err := position.ParseLevel(m.StopLoss)
	if err != nil {
		return position.Position{}, err
	}
	tp, err := position.ParseLevel(m.TakeProfit)
	if err != nil {
		return position.Position{}, err
	}
	return position.Position{
		ID:         m.ID,
		Symbol:     m.Symbol,
		Direction:  dir,
		EntryPrice: entry,
		StopLoss:   sl,
		TakeProfit: tp,
		LotSize:    lot,
		Score:      m.Score,
		Tag:        m.Tag,
		OpenedAt:   time.UnixMilli(m.OpenedAtUnix).UTC(),
	}, nil
}

type signalModel struct {
	ID             string `gorm:"column:id;primaryKey"`
	Seq            int    `gorm:"column:seq"`
	Kind           string `gorm:"column:kind;index"`
	Weight         int    `gorm:"column:weight"`
	Label          string `gorm:"column:label"`
	RawText        string `gorm:"column:raw_text"`
	ObservedAtUnix int64  `gorm:"column:observed_at;index"`
}

func (signalModel) TableName() string { return "signals" }

func newSignalModel(seq int, s signal.Signal) signalModel {
	return signalModel{
		ID:             s.ID,
		Seq:            seq,
		Kind:           string(s.Kind),
		Weight:         s.Weight,
		Label:          s.Label,
		RawText:        s.RawText,
		ObservedAtUnix: s.ObservedAt.UnixMilli(),
	}
}

func (m signalModel) toSignal() signal.Signal {
	return signal.Signal{
		ID:         m.ID,
		Kind:       signal.Kind(m.Kind),
		Weight:     m.Weight,
		Label:      m.Label,
		RawText:    m.RawText,
		ObservedAt: time.UnixMilli(m.ObservedAtUnix).UTC(),
	}
}

type closeEventModel struct {
	ID         int64          `gorm:"column:id;primaryKey"`
	Seq        int            `gorm:"column:seq;index"`
	PositionID string         `gorm:"column:position_id;index"`
	Payload    datatypes.JSON `gorm:"column:payload;type:TEXT"`
	AtUnix     int64          `gorm:"column:at"`
}

func (closeEventModel) TableName() string { return "close_events" }
