package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	oerrors "github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/link"
	"github.com/vango-dev/outlet/pkg/render"
	"github.com/vango-dev/outlet/pkg/router"
)

type levelJSON struct {
	Name      string            `json:"name,omitempty"`
	Component string            `json:"component"`
	Params    router.Params     `json:"params,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

type instructionJSON struct {
	URL    string      `json:"url"`
	Levels []levelJSON `json:"levels"`
	Query  url.Values  `json:"query,omitempty"`
}

func encodeInstruction(in *router.Instruction) *instructionJSON {
	if in == nil {
		return nil
	}
	out := &instructionJSON{URL: in.URL(), Levels: []levelJSON{}}
	if q := in.Query(); len(q) > 0 {
		out.Query = q
	}
	for _, lvl := range in.Levels() {
		out.Levels = append(out.Levels, levelJSON{
			Name:      lvl.Name(),
			Component: lvl.Component(),
			Params:    lvl.Params(),
			Data:      lvl.Config().Data,
		})
	}
	return out
}

type errorJSON struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type linkJSON struct {
	Href   string `json:"href"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

type navigateRequest struct {
	URL    string `json:"url,omitempty"`
	Target []any  `json:"target,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), errorJSON{Code: oerrors.CodeOf(err), Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, router.ErrRouteNotFound), errors.Is(err, router.ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, router.ErrNavigationAborted):
		return http.StatusConflict
	case errors.Is(err, router.ErrUnknownRouteName),
		errors.Is(err, router.ErrMissingParam),
		errors.Is(err, router.ErrUnknownParam),
		errors.Is(err, router.ErrInvalidURL),
		errors.Is(err, link.ErrInvalidTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"routes": s.root.Recognizer().Configs(),
		"names":  s.root.Recognizer().Names(),
	})
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "url query parameter is required"})
		return
	}
	instr, err := s.root.Recognizer().Recognize(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeInstruction(instr))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid JSON body"})
		return
	}
	target, err := link.ParseTarget(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}

	st := link.Compute(s.root, target, s.cfg.Link.Prefix)
	if st.Err != nil {
		writeError(w, st.Err)
		return
	}
	writeJSON(w, http.StatusOK, linkJSON{Href: st.Href, URL: st.Instruction.URL(), Active: st.Active})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid JSON body"})
		return
	}

	var err error
	switch {
	case req.URL != "":
		err = s.root.NavigateByURL(r.Context(), req.URL)
	case len(req.Target) > 0:
		var target link.Target
		if target, err = link.ParseTarget(req.Target); err == nil {
			st := link.Compute(s.root, target, s.cfg.Link.Prefix)
			if err = st.Err; err == nil {
				err = s.root.NavigateByInstruction(r.Context(), st.Instruction)
			}
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "url or target is required"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeInstruction(s.root.Current()))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current": encodeInstruction(s.root.Current()),
		"clients": s.hub.ClientCount(),
	})
}

// handlePage navigates to the request URL and renders the page. The body
// is rendered even when navigation fails, showing whatever is active.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if err := s.root.NavigateByURL(r.Context(), r.URL.RequestURI()); err != nil {
		status = statusOf(err)
	}

	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	page := render.PageData{
		Body:          s.page,
		Title:         s.cfg.Server.Title,
		HistorySocket: s.cfg.Server.HistoryPath,
	}
	if cur := s.root.Current(); cur != nil {
		page.URL = cur.URL()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderer.RenderPage(w, page); err != nil {
		s.logger.Error("page render failed", "url", r.URL.RequestURI(), "error", err)
	}
}
