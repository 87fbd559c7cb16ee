package web

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/guslan/c8vm"
)

// HttpDebugger streams a c8vm.Snapshot after every SendEvery cycles.
type HttpDebugger struct {
	SendEvery uint

	logger *slog.Logger

	mutex       sync.Mutex
	subscribers map[chan c8vm.Snapshot]struct{}
}

// NewHttpDebugger creates a new debugger and registers its hook on the machine
func NewHttpDebugger(machine *c8vm.Machine, logger *slog.Logger) *HttpDebugger {
	deb := &HttpDebugger{
		SendEvery:   1,
		logger:      logger,
		subscribers: map[chan c8vm.Snapshot]struct{}{},
	}

	machine.WithInterpreter(func(in *c8vm.Interpreter) {
		in.AddAfterCycleHook(deb.afterCycle)
	})

	return deb
}

func (d *HttpDebugger) subscribe() chan c8vm.Snapshot {
	ch := make(chan c8vm.Snapshot, 64)

	d.mutex.Lock()
	d.subscribers[ch] = struct{}{}
	d.mutex.Unlock()

	return ch
}

func (d *HttpDebugger) unsubscribe(ch chan c8vm.Snapshot) {
	d.mutex.Lock()
	delete(d.subscribers, ch)
	d.mutex.Unlock()
}

// afterCycle runs with the machine locked, so slow clients lose snapshots
// instead of stalling the interpreter.
func (d *HttpDebugger) afterCycle(in *c8vm.Interpreter) {
	if d.SendEvery == 0 || in.Cycles()%d.SendEvery != 0 {
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.subscribers) == 0 {
		return
	}

	snap := in.Snapshot()
	for ch := range d.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (d *HttpDebugger) serveWs(w http.ResponseWriter, r *http.Request) {
	d.logger.Info("Connecting to debugger")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Error("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ch := d.subscribe()
	defer d.unsubscribe(ch)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap := <-ch:
			buf, _ := snap.MarshalBinary()
			if err := conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
				d.logger.Error("Error writing debugger message", slog.Any("error", err))
				return
			}

		case <-closed:
			return

		case <-r.Context().Done():
			return
		}
	}
}
