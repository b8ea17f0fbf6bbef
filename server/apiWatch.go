package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/pensapedia/studygate/server/sessiondb"
)

type sessionDeletedJSON struct {
	Type    string `json:"type"` // "sessionDeleted"
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func deleteMessage(reason string) string {
	switch reason {
	case sessiondb.ReasonAdminTerminated:
		return "Your session has been terminated by an administrator."
	case sessiondb.ReasonKeyDeleted:
		return "Your access key has been removed."
	default:
		return "You have been logged out."
	}
}

// httpSessionWatch holds a websocket open, and pushes a message the moment
// the caller's session is deleted, so the device can log itself out without
// waiting for its next heartbeat to fail.
func (s *Server) httpSessionWatch(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("httpSessionWatch websocket upgrade failed: %v", err)
		return
	}
	defer c.Close()

	events, cancel := s.sessionDB.Notifier.Subscribe(session.ID)
	defer cancel()

	// The reader exists to detect the peer closing the socket
	peerClosed := make(chan bool)
	go func() {
		defer close(peerClosed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case ev := <-events:
		msg := sessionDeletedJSON{
			Type:    "sessionDeleted",
			Reason:  ev.Reason,
			Message: deleteMessage(ev.Reason),
		}
		if err := c.WriteJSON(msg); err != nil {
			s.Log.Warnf("Failed to send sessionDeleted to session %v: %v", session.ID, err)
		}
	case <-peerClosed:
	case <-s.shutdown:
	}
}
