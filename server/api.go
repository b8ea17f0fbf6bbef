package server

import (
	"net/http"
	"os"
	"time"

	"github.com/cyclopcam/staticfiles"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
	"github.com/pensapedia/studygate/server/sessiondb"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession)

func (s *Server) setupHttpRoutes() error {
	router := httprouter.New()

	// unprotected creates an HTTP handler that is accessible without a session
	unprotected := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	// ratelimited is for the endpoints that an attacker could hammer to
	// guess key codes or the admin password
	ratelimited := func(method, route string, handle http.HandlerFunc, requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(handle).ServeHTTP(w, r)
		})
	}

	// protected creates an HTTP handler that requires a live session
	protected := func(method, route string, handle sessionHandler) {
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			session := s.authenticateSession(r)
			handle(w, r, params, session)
		})
	}

	// admin creates an HTTP handler that requires the admin password
	admin := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			s.authenticateAdmin(r)
			handle(w, r, params)
		})
	}

	unprotected("GET", "/api/ping", s.httpPing)
	unprotected("GET", "/api/constants", s.httpConstants)

	ratelimited("POST", "/api/auth/login", s.httpAuthLogin, 10, time.Minute)
	unprotected("POST", "/cleanup", s.httpAuthCleanup)
	protected("GET", "/api/auth/check", s.httpAuthCheck)
	protected("POST", "/api/auth/heartbeat", s.httpAuthHeartbeat)
	protected("POST", "/api/auth/logout", s.httpAuthLogout)
	protected("GET", "/api/session/watch", s.httpSessionWatch)

	protected("GET", "/api/content/flashcards", s.httpContentFlashcards)
	protected("GET", "/api/content/flashcards/deck", s.httpContentDeck)
	protected("GET", "/api/content/maps", s.httpContentMaps)
	protected("GET", "/api/content/ssm", s.httpContentSSM)

	ratelimited("GET", "/api/admin/keys", s.adminOnly(s.httpAdminListKeys), 30, time.Minute)
	admin("POST", "/api/admin/keys", s.httpAdminCreateKey)
	admin("POST", "/api/admin/keys/:keyID/toggle", s.httpAdminToggleKey)
	admin("DELETE", "/api/admin/keys/:keyID", s.httpAdminDeleteKey)
	admin("GET", "/api/admin/sessions", s.httpAdminListSessions)
	admin("DELETE", "/api/admin/sessions/:sessionID", s.httpAdminKillSession)
	admin("POST", "/api/admin/sessions/purge", s.httpAdminPurgeSessions)

	if s.cfg.WWWRoot != "" {
		static, err := staticfiles.NewCachedStaticFileServer(os.DirFS(s.cfg.WWWRoot), "", []string{"/api/"}, s.Log, false, nil)
		if err != nil {
			return err
		}
		router.NotFound = static
	}

	s.httpRouter = router
	return nil
}

// adminOnly adapts an admin handler to a plain http.HandlerFunc, for wrapping
// in a rate limiter. The admin key listing is the natural first target for a
// password guesser, so it gets both checks.
func (s *Server) adminOnly(handle httprouter.Handle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.authenticateAdmin(r)
		handle(w, r, nil)
	}
}
