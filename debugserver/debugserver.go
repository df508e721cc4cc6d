// Package debugserver exposes a minimal, read-only HTTP surface for
// inspecting MBIM messages: POST raw bytes and get back the
// mbim.Printable dump, or POST an ordered array of fragments and get
// back the reassembled dump. It is not a transaction tracker or a
// per-service decoder -- both are explicitly out of the mbim core's
// scope -- just a debugging aid built the way this corpus wires its
// generichttp adapters, using chi for routing instead of goji (this
// module has exactly one small route table, and pulling in a second
// router for it would not earn its keep).
package debugserver

import (
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/nasa-jpl/mbimcore/mbim"
)

// Server wraps a chi.Mux with the mbim introspection routes bound.
type Server struct {
	mux    *chi.Mux
	prefix string
}

// New builds a Server. prefix is used only in log lines, to tell
// multiple Servers apart if a caller runs more than one.
func New(prefix string) *Server {
	s := &Server{mux: chi.NewRouter(), prefix: prefix}
	s.mux.Get("/healthz", s.handleHealthz)
	s.mux.Post("/decode", s.handleDecode)
	s.mux.Post("/reassemble", s.handleReassemble)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	buf, err := ioutil.ReadAll(r.Body)
	if err != nil {
		s.badRequest(w, "reading request body: "+err.Error())
		return
	}

	m := mbim.NewFromBytes(buf)
	if _, err := m.Raw(); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if len(buf) < 12 {
		s.badRequest(w, "message is shorter than the 12-byte MBIM header")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(mbim.Printable(m, "")))
}

// reassembleRequest is the JSON body of POST /reassemble: an ordered
// array of base64-encoded fragment byte strings.
type reassembleRequest struct {
	Fragments []string `json:"fragments"`
}

func (s *Server) handleReassemble(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req reassembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "decoding JSON body: "+err.Error())
		return
	}
	if len(req.Fragments) == 0 {
		s.badRequest(w, "fragments must be non-empty")
		return
	}

	first, err := decodeFragment(req.Fragments[0])
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	collector, err := mbim.Init(first)
	if err != nil {
		s.conflict(w, err.Error())
		return
	}
	for _, encoded := range req.Fragments[1:] {
		next, err := decodeFragment(encoded)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}
		if err := collector.Add(next); err != nil {
			collector.Release()
			s.conflict(w, err.Error())
			return
		}
	}
	if !collector.Complete() {
		collector.Release()
		s.conflict(w, "fragments provided do not complete the transaction")
		return
	}

	reassembled, err := collector.Message()
	if err != nil {
		s.conflict(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(mbim.Printable(reassembled, "")))
}

func decodeFragment(encoded string) (*mbim.Message, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return mbim.NewFromBytes(raw), nil
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	log.Printf("debugserver%s: 400: %s", s.logPrefix(), msg)
	http.Error(w, msg, http.StatusBadRequest)
}

func (s *Server) conflict(w http.ResponseWriter, msg string) {
	log.Printf("debugserver%s: 409: %s", s.logPrefix(), msg)
	http.Error(w, msg, http.StatusConflict)
}

func (s *Server) logPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return "[" + s.prefix + "]"
}
