package server

import (
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/pensapedia/studygate/pkg/flashcard"
	"github.com/pensapedia/studygate/server/content"
	"github.com/pensapedia/studygate/server/sessiondb"
)

type contentListJSON struct {
	Configured bool           `json:"configured"`
	Files      []content.File `json:"files"`
}

func (s *Server) httpContentFlashcards(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	s.sendTree(w, r, s.cfg.Content.Flashcards, content.FlashcardExts)
}

func (s *Server) httpContentMaps(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	s.sendTree(w, r, s.cfg.Content.Maps, content.MapExts)
}

func (s *Server) httpContentSSM(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	s.sendTree(w, r, s.cfg.Content.SSM, content.PDFExts)
}

func (s *Server) sendTree(w http.ResponseWriter, r *http.Request, root string, exts []string) {
	if root == "" {
		www.SendJSON(w, &contentListJSON{Configured: false, Files: []content.File{}})
		return
	}
	files, err := s.content.ListTree(r.Context(), root, exts)
	if err != nil {
		if errors.Is(err, content.ErrNotConfigured) {
			www.SendJSON(w, &contentListJSON{Configured: false, Files: []content.File{}})
			return
		}
		rateLimited := &content.RateLimitError{}
		if errors.As(err, &rateLimited) {
			www.Panic(http.StatusServiceUnavailable, rateLimited.Error()+". Add a GitHub token to the server config to increase the limit.")
		}
		www.Check(err)
	}
	www.SendJSON(w, &contentListJSON{Configured: true, Files: files})
}

// httpContentDeck fetches one flashcard file, parses it, and returns the
// cards pre-shuffled, so every request deals a fresh deck.
func (s *Server) httpContentDeck(w http.ResponseWriter, r *http.Request, params httprouter.Params, session *sessiondb.ActiveSession) {
	path := www.RequiredQueryValue(r, "path")
	if strings.Contains(path, "..") {
		www.PanicBadRequestf("Invalid path")
	}
	if s.cfg.Content.Flashcards == "" {
		www.PanicNotFound()
	}
	if !strings.HasPrefix(path, s.cfg.Content.Flashcards+"/") && path != s.cfg.Content.Flashcards {
		path = s.cfg.Content.Flashcards + "/" + path
	}
	raw, err := s.content.FetchRaw(r.Context(), path)
	www.Check(err)
	cards := flashcard.Parse(string(raw))
	flashcard.Shuffle(cards, rand.Intn)
	www.SendJSON(w, cards)
}
