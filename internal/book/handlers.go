package book

import (
	"fmt"

	"us30bot/internal/signal"
	"us30bot/internal/zones"
)

func payloadErr(t OpType, payload any) error {
	return fmt.Errorf("book: %s: unexpected payload %T", t, payload)
}

type recordSignalHandler struct{}

func (recordSignalHandler) Type() OpType { return OpRecordSignal }

func (recordSignalHandler) Handle(hc *HandlerContext, payload any) (any, error) {
	p, ok := payload.(RecordSignalPayload)
	if !ok {
		return nil, payloadErr(OpRecordSignal, payload)
	}
	at := p.ObservedAt
	if at.IsZero() {
		at = hc.Now()
	}
	sig := signal.New(p.Classified, p.RawText, at)
	hc.Signals().Record(sig)
	return SignalOutcome{Signal: sig, Score: hc.Score()}, nil
}

type resetSignalsHandler struct{}

func (resetSignalsHandler) Type() OpType { return OpResetSignals }

func (resetSignalsHandler) Handle(hc *HandlerContext, _ any) (any, error) {
	return hc.Signals().ResetAll(), nil
}

type openPositionHandler struct{}

func (openPositionHandler) Type() OpType { return OpOpenPosition }

// Handle stamps the current score on positions opened without one.
func (openPositionHandler) Handle(hc *HandlerContext, payload any) (any, error) {
	p, ok := payload.(OpenPositionPayload)
	if !ok {
		return nil, payloadErr(OpOpenPosition, payload)
	}
	pos := p.Position
	if pos.Score == nil {
		if total := hc.Score().Total; total > 0 {
			pos.Score = &total
		}
	}
	return hc.Positions().Open(pos)
}

type openBatchHandler struct{}

func (openBatchHandler) Type() OpType { return OpOpenBatch }

func (openBatchHandler) Handle(hc *HandlerContext, payload any) (any, error) {
	p, ok := payload.(OpenBatchPayload)
	if !ok {
		return nil, payloadErr(OpOpenBatch, payload)
	}
	return hc.Positions().OpenBatch(p.Text), nil
}

type closePositionsHandler struct{}

func (closePositionsHandler) Type() OpType { return OpClosePositions }

func (closePositionsHandler) Handle(hc *HandlerContext, payload any) (any, error) {
	p, ok := payload.(ClosePayload)
	if !ok {
		return nil, payloadErr(OpClosePositions, payload)
	}
	return hc.Positions().PartialClose(p.Match, p.Percent, p.Exit), nil
}

type closeAllHandler struct{}

func (closeAllHandler) Type() OpType { return OpCloseAll }

func (closeAllHandler) Handle(hc *HandlerContext, payload any) (any, error) {
	p, ok := payload.(CloseAllPayload)
	if !ok {
		return nil, payloadErr(OpCloseAll, payload)
	}
	return hc.Positions().CloseAll(p.Direction), nil
}

type updatePositionsHandler struct{}

func (updatePositionsHandler) Type() OpType { return OpUpdatePositions }

func (updatePositionsHandler) Handle(hc *HandlerContext, payload any) (any, error) {
	p, ok := payload.(UpdatePayload)
	if !ok {
		return nil, payloadErr(OpUpdatePositions, payload)
	}
	return hc.Positions().Update(p.Spec), nil
}

type setOpenPriceHandler struct{}

func (setOpenPriceHandler) Type() OpType { return OpSetOpenPrice }

func (setOpenPriceHandler) Handle(hc *HandlerContext, payload any) (any, error) {
	p, ok := payload.(SetOpenPricePayload)
	if !ok {
		return nil, payloadErr(OpSetOpenPrice, payload)
	}
	if !p.Price.IsPositive() {
		return nil, fmt.Errorf("book: open price must be positive, got %s", p.Price)
	}
	hc.SetOpenPrice(p.Price)
	return zones.Compute(p.Price), nil
}
