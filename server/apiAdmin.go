package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/pensapedia/studygate/server/sessiondb"
)

func (s *Server) httpAdminListKeys(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	keys, err := s.sessionDB.ListKeys()
	www.Check(err)
	www.SendJSON(w, keys)
}

func (s *Server) httpAdminCreateKey(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	req := struct {
		KeyCode string `json:"keyCode"`
	}{}
	www.ReadJSON(w, r, &req, 1024*1024)
	key, err := s.sessionDB.CreateKey(strings.TrimSpace(req.KeyCode))
	if errors.Is(err, sessiondb.ErrKeyCodeExists) {
		www.Panic(http.StatusConflict, "A key with that code already exists")
	}
	www.Check(err)
	www.SendJSON(w, key)
}

func (s *Server) httpAdminToggleKey(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	keyID := parseIDOrPanic(params.ByName("keyID"))
	active, err := s.sessionDB.ToggleKey(keyID)
	if errors.Is(err, sessiondb.ErrKeyNotFound) {
		www.PanicNotFound()
	}
	www.Check(err)
	www.SendJSONBool(w, active)
}

func (s *Server) httpAdminDeleteKey(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	keyID := parseIDOrPanic(params.ByName("keyID"))
	err := s.sessionDB.DeleteKey(keyID)
	if errors.Is(err, sessiondb.ErrKeyNotFound) {
		www.PanicNotFound()
	}
	www.Check(err)
	www.SendOK(w)
}

func (s *Server) httpAdminListSessions(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	sessions, err := s.sessionDB.ListLiveSessions()
	www.Check(err)
	www.SendJSON(w, sessions)
}

func (s *Server) httpAdminKillSession(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	sessionID := parseIDOrPanic(params.ByName("sessionID"))
	www.Check(s.sessionDB.Kill(sessionID))
	www.SendOK(w)
}

func (s *Server) httpAdminPurgeSessions(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	purged, err := s.sessionDB.PurgeStale()
	www.Check(err)
	www.SendJSON(w, struct {
		Purged int64 `json:"purged"`
	}{Purged: purged})
}

func parseIDOrPanic(s string) int64 {
	id := www.ParseID(s)
	if id == 0 {
		www.PanicBadRequestf("Invalid ID")
	}
	return id
}
