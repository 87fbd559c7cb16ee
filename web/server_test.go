package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/c8vm"
	"github.com/retroenv/retrogolib/assert"
)

func newTestServer(t *testing.T, debug bool) (*Server, *httptest.Server) {
	t.Helper()

	s := NewServer(func(config *ServerConfig) {
		config.UseDebugger = debug
		config.StaticDir = t.TempDir()
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestControlEndpoints(t *testing.T) {
	s, ts := newTestServer(t, false)
	assert.NoError(t, s.LoadProgram([]byte{0x60, 0x07, 0x12, 0x02}))
	assert.False(t, s.Machine().IsRunning())

	for _, path := range []string{"/step", "/start"} {
		resp, err := http.Get(ts.URL + path)
		assert.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	}

	assert.True(t, s.Machine().IsRunning())
	assert.Equal(t, byte(7), s.Machine().Snapshot().V[0])

	resp, err := http.Get(ts.URL + "/reset")
	assert.NoError(t, err)
	resp.Body.Close()

	assert.False(t, s.Machine().IsRunning())
	assert.Equal(t, byte(0), s.Machine().Snapshot().V[0])
}

func TestMemoryDump(t *testing.T) {
	s, ts := newTestServer(t, false)
	assert.NoError(t, s.LoadProgram([]byte{0x60, 0x07, 0x12, 0x02}))

	resp, err := http.Get(ts.URL + "/memory")
	assert.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.True(t, strings.Contains(string(body), "\n200  60 07 12 02 00"))
}

func TestDisplaySocketReceivesFrames(t *testing.T) {
	s, ts := newTestServer(t, false)
	conn := dial(t, ts, "/display")

	_, msg, err := conn.ReadMessage()
	assert.NoError(t, err)
	assert.Equal(t, 256, len(msg))

	assert.NoError(t, s.LoadProgram([]byte{0xD0, 0x15}))
	s.Machine().Step()
	assert.NoError(t, s.Machine().Present())

	_, msg, err = conn.ReadMessage()
	assert.NoError(t, err)
	assert.Equal(t, byte(0xF0), msg[0])
}

func TestKeySocketPressesKeys(t *testing.T) {
	s, ts := newTestServer(t, false)
	conn := dial(t, ts, "/keys")

	// out of range keys are ignored
	assert.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x20, 1}))
	assert.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xA, 1}))

	pressed := func(k byte) func() bool {
		return func() bool {
			var down bool
			s.Machine().WithInterpreter(func(in *c8vm.Interpreter) {
				down = in.KeyState(k)
			})
			return down
		}
	}
	eventually(t, pressed(0xA))

	assert.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xA, 0}))
	eventually(t, func() bool { return !pressed(0xA)() })
}

func TestDebuggerStreamsSnapshots(t *testing.T) {
	s, ts := newTestServer(t, true)
	assert.NoError(t, s.LoadProgram([]byte{0x6E, 0x2A}))

	conn := dial(t, ts, "/debugger")
	eventually(t, func() bool {
		s.debugger.mutex.Lock()
		defer s.debugger.mutex.Unlock()
		return len(s.debugger.subscribers) == 1
	})

	s.Machine().Step()

	_, msg, err := conn.ReadMessage()
	assert.NoError(t, err)
	// PC then V0..VF
	assert.Equal(t, []byte{0x02, 0x02}, msg[2:4])
	assert.Equal(t, byte(0x2A), msg[4+0xE])
}
