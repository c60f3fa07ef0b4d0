package book

import "us30bot/internal/logger"

// HandlerRegistry maps operation types to handlers.
type HandlerRegistry struct {
	handlers map[OpType]Handler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[OpType]Handler)}
}

// Register adds h, replacing any handler for the same type.
func (r *HandlerRegistry) Register(h Handler) {
	if h == nil {
		return
	}
	r.handlers[h.Type()] = h
}

func (r *HandlerRegistry) Get(t OpType) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}

// RegisterDefaultHandlers registers every built-in operation.
func (r *HandlerRegistry) RegisterDefaultHandlers() {
	r.Register(recordSignalHandler{})
	r.Register(resetSignalsHandler{})
	r.Register(openPositionHandler{})
	r.Register(openBatchHandler{})
	r.Register(closePositionsHandler{})
	r.Register(closeAllHandler{})
	r.Register(updatePositionsHandler{})
	r.Register(setOpenPriceHandler{})
	logger.Debugf("book: registered %d handlers", len(r.handlers))
}
