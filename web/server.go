package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/c8vm"
	"github.com/pkg/errors"
)

type Server struct {
	*c8vm.DummyBuzzer

	machine  *c8vm.Machine
	debugger *HttpDebugger
	mux      *http.ServeMux
	logger   *slog.Logger

	socket  *websocket.Conn
	wsMutex sync.Mutex
}

type ServerConfig struct {
	Frequency   uint
	UseDebugger bool
	StaticDir   string
	Logger      *slog.Logger
}
type ServerConfigCb func(config *ServerConfig)

var upgrader = websocket.Upgrader{} // use default options

func NewServer(configs ...ServerConfigCb) *Server {
	config := &ServerConfig{
		Frequency:   c8vm.DefaultFrequency,
		UseDebugger: false,
		StaticDir:   "./static",
		Logger:      slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	s := &Server{
		DummyBuzzer: c8vm.NewDummyBuzzer(),
		mux:         http.NewServeMux(),
		logger:      config.Logger,
	}

	interp := c8vm.NewInterpreter(c8vm.WithLogger(config.Logger))
	s.machine = c8vm.NewMachine(interp, s, s.DummyBuzzer,
		c8vm.WithFrequency(config.Frequency),
		c8vm.WithMachineLogger(config.Logger),
		c8vm.Paused())

	if config.UseDebugger {
		s.debugger = NewHttpDebugger(s.machine, config.Logger)
		s.mux.HandleFunc("/debugger", s.debugger.serveWs)
	}

	s.routes(config.StaticDir)

	return s
}

func (server *Server) Machine() *c8vm.Machine {
	return server.machine
}

// Handler exposes the routes, mostly for tests.
func (server *Server) Handler() http.Handler {
	return server.mux
}

func noCache(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

		w.Header().Set("Cache-Control", "no-cache")

		h(w, r)
	}
}

func (server *Server) routes(staticDir string) {
	server.mux.Handle("/", http.FileServer(http.Dir(staticDir)))

	server.mux.HandleFunc("/start", noCache(func(w http.ResponseWriter, r *http.Request) {
		server.logger.Info("Starting")
		server.machine.Start()
	}))
	server.mux.HandleFunc("/stop", noCache(func(w http.ResponseWriter, r *http.Request) {
		server.logger.Info("Stopping")
		server.machine.Stop()
	}))
	server.mux.HandleFunc("/reset", noCache(func(w http.ResponseWriter, r *http.Request) {
		server.logger.Info("Stopping and resetting")
		server.machine.Stop()
		server.machine.Reset()
	}))
	server.mux.HandleFunc("/step", noCache(func(w http.ResponseWriter, r *http.Request) {
		server.logger.Info("Single cycle")
		server.machine.Step()
	}))
	server.mux.HandleFunc("/memory", noCache(func(w http.ResponseWriter, r *http.Request) {
		var dump string
		server.machine.WithInterpreter(func(in *c8vm.Interpreter) {
			dump = in.Memory().String()
		})

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, dump); err != nil {
			server.logger.Error("writing memory dump", slog.Any("error", err))
		}
	}))
	server.mux.HandleFunc("/display", server.serveDisplay)
	server.mux.HandleFunc("/keys", server.serveKeys)
}

// Listen runs the machine and serves HTTP until ctx is done.
func (server *Server) Listen(ctx context.Context, port int) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- server.machine.Run(ctx)
	}()
	go func() {
		server.logger.Info("Listening on port", slog.Int("port", port))
		errCh <- httpServer.ListenAndServe()
	}()

	err := <-errCh
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		server.logger.Error("shutting down", slog.Any("error", shutdownErr))
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// LoadProgram loads the program into memory and sets the PC to the start-of-program address
func (server *Server) LoadProgram(program []byte) error {
	return server.machine.Load(program)
}
