package server

import (
	"net/http"
	"time"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/pensapedia/studygate/server/sessiondb"
)

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type pingJSON struct {
		Time int64 `json:"time"`
	}
	www.SendJSON(w, &pingJSON{
		Time: time.Now().Unix(),
	})
}

// httpConstants tells the frontend which material categories are available,
// and how to keep its session alive.
func (s *Server) httpConstants(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type constantsJSON struct {
		HeartbeatSeconds  int  `json:"heartbeatSeconds"`
		LiveWindowSeconds int  `json:"liveWindowSeconds"`
		Flashcards        bool `json:"flashcards"`
		Maps              bool `json:"maps"`
		SSM               bool `json:"ssm"`
	}
	www.SendJSON(w, &constantsJSON{
		HeartbeatSeconds:  int(sessiondb.HeartbeatInterval.Seconds()),
		LiveWindowSeconds: int(sessiondb.LiveWindow.Seconds()),
		Flashcards:        s.cfg.Content.Flashcards != "",
		Maps:              s.cfg.Content.Maps != "",
		SSM:               s.cfg.Content.SSM != "",
	})
}
