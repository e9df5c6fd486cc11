// Package control exposes a WebSocket endpoint that drives the session's
// stop/reload latch remotely. It only ever sets the latch; session state
// stays owned by the loop.
package control

import (
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pixview/pixview/internal/signals"
)

const (
	CommandReload = "reload"
	CommandStop   = "stop"
)

// Command is the wire format clients send.
type Command struct {
	Command string `json:"command"`
}

// Server accepts WebSocket clients on /control.
type Server struct {
	latch      *signals.Latch
	reloadable bool

	httpSrv *http.Server
	ln      net.Listener
}

// NewServer creates a control server. Reload commands are ignored when the
// image source is not reloadable, matching the signal behavior.
func NewServer(latch *signals.Latch, reloadable bool) *Server {
	return &Server{latch: latch, reloadable: reloadable}
}

// Listen binds addr and serves in the background.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control listen: %w", err)
	}
	s.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/control", s.handleWS)
	s.httpSrv = &http.Server{Handler: mux}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("control server: %v", err)
		}
	}()
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Close() {
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("control upgrade: %v", err)
		return
	}
	log.Printf("control client connected: %s", r.RemoteAddr)
	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Command {
		case CommandReload:
			if s.reloadable {
				s.latch.RequestReload()
			}
		case CommandStop:
			s.latch.RequestStop()
		default:
			log.Printf("control: unknown command %q", cmd.Command)
		}
	}
}
