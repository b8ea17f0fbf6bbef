package server

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/pensapedia/studygate/pkg/fingerprint"
	"github.com/pensapedia/studygate/server/sessiondb"
)

// SessionIDHeader carries the session id on authenticated requests
const SessionIDHeader = "X-Session-ID"

// AdminPasswordHeader carries the console password on admin requests
const AdminPasswordHeader = "X-Admin-Password"

type loginRequest struct {
	KeyCode string              `json:"keyCode"`
	Device  fingerprint.Profile `json:"device"`
}

// SYNC-LOGIN-RESPONSE-JSON
type loginResponseJSON struct {
	SessionID         int64  `json:"sessionID"`
	KeyID             int64  `json:"keyID"`
	DeviceFingerprint string `json:"deviceFingerprint"`
	HeartbeatSeconds  int    `json:"heartbeatSeconds"`
	LiveWindowSeconds int    `json:"liveWindowSeconds"`
}

func (s *Server) httpAuthLogin(w http.ResponseWriter, r *http.Request) {
	req := loginRequest{}
	www.ReadJSON(w, r, &req, 1024*1024)
	keyCode := strings.TrimSpace(req.KeyCode)
	if keyCode == "" {
		www.PanicBadRequestf("Please enter an access key")
	}

	device := fingerprint.Hash(&req.Device)
	session, err := s.sessionDB.Admit(keyCode, device, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, sessiondb.ErrInvalidKey):
			www.Panic(http.StatusUnauthorized, "Invalid or inactive access key")
		case errors.Is(err, sessiondb.ErrKeyInUse):
			www.Panic(http.StatusConflict, "This key is currently in use on another device. Please use a different key or wait for the other session to end.")
		default:
			www.Check(err)
		}
	}

	www.SendJSON(w, &loginResponseJSON{
		SessionID:         session.ID,
		KeyID:             session.KeyID,
		DeviceFingerprint: session.DeviceFingerprint,
		HeartbeatSeconds:  int(sessiondb.HeartbeatInterval.Seconds()),
		LiveWindowSeconds: int(sessiondb.LiveWindow.Seconds()),
	})
}

// authenticateSession panics with 401 unless the request carries the id of an
// existing session. The id comes from the X-Session-ID header, or from the
// sessionID query parameter for websocket requests, where the browser API
// can't set headers.
func (s *Server) authenticateSession(r *http.Request) *sessiondb.ActiveSession {
	id := www.ParseID(r.Header.Get(SessionIDHeader))
	if id == 0 {
		id = www.QueryInt64(r, "sessionID")
	}
	if id == 0 {
		www.PanicUnauthorized()
	}
	session, err := s.sessionDB.Verify(id)
	if err != nil {
		www.PanicUnauthorized()
	}
	return session
}

func (s *Server) authenticateAdmin(r *http.Request) {
	if s.cfg.AdminPassword == "" || r.Header.Get(AdminPasswordHeader) != s.cfg.AdminPassword {
		www.PanicForbidden()
	}
}

func (s *Server) httpAuthCheck(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	www.SendJSON(w, session)
}

func (s *Server) httpAuthHeartbeat(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	if err := s.sessionDB.Heartbeat(session.ID); err != nil {
		www.PanicUnauthorized()
	}
	www.SendOK(w)
}

func (s *Server) httpAuthLogout(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	www.Check(s.sessionDB.Logout(session.ID))
	www.SendOK(w)
}

// httpAuthCleanup is the unload beacon. The browser fires it as the tab
// closes, with no opportunity to read a response, so it always succeeds.
// It is unprotected because navigator.sendBeacon can't set headers.
func (s *Server) httpAuthCleanup(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	req := struct {
		SessionID int64 `json:"session_id"`
	}{}
	www.ReadJSON(w, r, &req, 1024*1024)
	if req.SessionID != 0 {
		if err := s.sessionDB.Logout(req.SessionID); err != nil {
			s.Log.Warnf("Cleanup beacon failed for session %v: %v", req.SessionID, err)
		}
	}
	www.PanicNoContent()
}

// clientIP finds the address the request came from, preferring the forwarding
// proxy's header when present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
