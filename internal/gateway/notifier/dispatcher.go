package notifier

import (
	"context"
	"sync"
	"time"

	"us30bot/internal/logger"
)

const (
	defaultQueueSize   = 128
	defaultSendTimeout = 10 * time.Second
)

// Observer is told about every delivery attempt.
type Observer interface {
	ObserveNotify(err error)
}

type job struct {
	chatID string
	text   string
}

// Dispatcher queues messages and delivers them on its own goroutine so
// callers never wait on the network. Failures are logged and dropped.
type Dispatcher struct {
	next        TextNotifier
	queue       chan job
	sendTimeout time.Duration
	observer    Observer

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcher wraps next with a queue of size queueSize.
func NewDispatcher(next TextNotifier, queueSize int, sendTimeout time.Duration, obs Observer) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		next:        next,
		queue:       make(chan job, queueSize),
		sendTimeout: sendTimeout,
		observer:    obs,
		stopCh:      make(chan struct{}),
	}
}

// SendText enqueues the message. It only fails when the queue is full or
// the dispatcher is stopped; delivery errors are never returned.
func (d *Dispatcher) SendText(_ context.Context, chatID, text string) error {
	select {
	case <-d.stopCh:
		return ErrQueueFull
	default:
	}
	select {
	case d.queue <- job{chatID: chatID, text: text}:
		return nil
	default:
		logger.Warnf("notifier: queue full, dropping message for %q", chatID)
		return ErrQueueFull
	}
}

// Start runs the delivery worker until ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				d.drain()
				return
			case <-d.stopCh:
				d.drain()
				return
			case j := <-d.queue:
				d.deliver(j)
			}
		}
	}()
}

// Stop delivers what is already queued and waits for the worker.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.queue:
			d.deliver(j)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()
	err := d.next.SendText(ctx, j.chatID, j.text)
	if err != nil {
		logger.Warnf("notifier: delivery failed: %v", err)
	}
	if d.observer != nil {
		d.observer.ObserveNotify(err)
	}
}
