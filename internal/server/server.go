package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/game"
	"github.com/youthloop/carboncity/internal/rules"
)

// Server is the websocket JSON gateway in front of the game core. Each
// connection is served by one read loop; requests on a connection are
// handled in order.
type Server struct {
	game     *game.Service
	catalog  *catalog.Catalog
	rules    *rules.Store
	logger   *zap.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

// New wires the gateway to the game core and the reloadable stores.
func New(svc *game.Service, cat *catalog.Catalog, ruleStore *rules.Store, logger *zap.Logger) *Server {
	return &Server{
		game:    svc,
		catalog: cat,
		rules:   ruleStore,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run serves websocket connections on addr until the listener fails or
// Shutdown is called.
func (s *Server) Run(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("gateway listening", zap.String("address", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(resp *response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug("write response", zap.Error(err))
		}
	}

	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("connection closed", zap.Error(err))
			}
			return
		}
		send(s.handle(r.Context(), &req))
	}
}
