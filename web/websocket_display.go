package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/guslan/c8vm"
)

func (server *Server) setWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	server.socket = conn
}

func (server *Server) unsetWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == conn {
		server.socket = nil
	}
}

// Render implements c8vm.Display.
// The packed framebuffer is sent as a single binary message.
func (server *Server) Render(frame c8vm.Frame) error {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == nil {
		return nil
	}

	if err := server.socket.WriteMessage(websocket.BinaryMessage, frame[:]); err != nil {
		server.logger.Warn("Dropping display connection", slog.Any("error", err))
		server.socket.Close()
		server.socket = nil
	}

	return nil
}

func (server *Server) serveDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Error("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	server.logger.Info("Connecting to display")
	server.setWs(conn)
	defer server.unsetWs(conn)

	// push the current screen right away
	server.Render(server.machine.Frame())

	// drain until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			server.logger.Info("Disconnecting from display")
			return
		}
	}
}

// serveKeys reads 2-byte messages {key, pressed} from the client.
func (server *Server) serveKeys(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Error("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if len(msg) != 2 || msg[0] >= c8vm.NumKeys {
			server.logger.Warn("Ignoring key event", slog.Any("message", msg))
			continue
		}

		server.machine.SetKeyState(msg[0], msg[1] != 0)
	}
}
