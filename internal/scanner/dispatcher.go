package scanner

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

const defaultBuffer = 64

// Dispatcher delivers events to a delegate from a single goroutine, one at
// a time, in the order they were posted.
type Dispatcher struct {
	delegate Delegate
	events   chan Event
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewDispatcher starts a dispatcher for delegate
func NewDispatcher(delegate Delegate, buffer int, log zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &Dispatcher{
		delegate: delegate,
		events:   make(chan Event, buffer),
		done:     make(chan struct{}),
		log:      log,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case ev := <-d.events:
			d.deliver(ev)
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("event", fmt.Sprintf("%T", ev)).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Scanner delegate panicked")
			if b, ok := ev.(ButtonChanged); ok && b.reply != nil {
				select {
				case b.reply <- true:
				default:
				}
			}
		}
	}()
	ev.deliver(d.delegate)
}

// Post queues ev. It reports false once the dispatcher is closed.
func (d *Dispatcher) Post(ev Event) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.events <- ev:
		return true
	case <-d.done:
		return false
	}
}

// Button posts a button transition and waits for the delegate's answer.
// A closed dispatcher reports the press as handled so nothing fires.
func (d *Dispatcher) Button(isLeft, isPressed bool) bool {
	reply := make(chan bool, 1)
	if !d.Post(ButtonChanged{IsLeft: isLeft, IsPressed: isPressed, reply: reply}) {
		return true
	}
	select {
	case handled := <-reply:
		return handled
	case <-d.done:
		return true
	}
}

// Close stops delivery and waits for the goroutine to exit. Queued events
// are dropped. It must not be called from a delegate method.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}
