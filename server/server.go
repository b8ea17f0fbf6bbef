// Package server is the HTTP server that gates study material behind access
// keys, enforcing at most one live device per key.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pensapedia/studygate/server/content"
	"github.com/pensapedia/studygate/server/sessiondb"
)

type Server struct {
	Log logs.Log

	cfg        Config
	sessionDB  *sessiondb.SessionDB
	content    *content.Client
	signalIn   chan os.Signal
	httpServer *http.Server
	httpRouter *httprouter.Router
	wsUpgrader websocket.Upgrader

	// Closed when Shutdown begins, to unblock websocket watchers
	shutdown chan bool
}

func NewServer(configFile string) (*Server, error) {
	cfg := Config{}
	if cfgB, err := os.ReadFile(configFile); err != nil {
		return nil, err
	} else {
		if err := json.Unmarshal(cfgB, &cfg); err != nil {
			return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
		}
	}
	logger, err := logs.NewLog()
	if err != nil {
		return nil, err
	}
	return NewServerWithConfig(logger, cfg)
}

func NewServerWithConfig(logger logs.Log, cfg Config) (*Server, error) {
	sessionDB, err := sessiondb.NewSessionDB(logger, cfg.DB)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Log:       logger,
		cfg:       cfg,
		sessionDB: sessionDB,
		content:   content.NewClient(logger, cfg.Content.Owner, cfg.Content.Repo, cfg.Content.Token),
		shutdown:  make(chan bool),
	}
	if err := s.setupHttpRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// port example: ":8084"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. Shutting down", sig.String())
			s.Shutdown()
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	if s.signalIn != nil {
		signal.Stop(s.signalIn)
		close(s.signalIn)
	}
	close(s.shutdown)
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Log.Warnf("Shutdown complete, with error: %v", err)
		} else {
			s.Log.Infof("Shutdown complete")
		}
	}
	s.Log.Close()
}
