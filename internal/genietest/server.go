// Package genietest provides an in-memory Genie spaces API for tests. Trashed spaces are
// removed outright, so a later read returns 404.
package genietest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/cchalm/genie-spaces/internal/rawjson"
)

const (
	spacesPath         = "/api/2.0/genie/spaces"
	serializedSpace    = "serialized_space"
	defaultPageSize    = 100
	errNotFound        = "RESOURCE_DOES_NOT_EXIST"
	errInvalidParam    = "INVALID_PARAMETER_VALUE"
	errUnauthenticated = "UNAUTHENTICATED"
)

// Request is a request received by the server
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type failure struct {
	status  int
	code    string
	message string
}

// Server is a fake workspace serving the Genie spaces endpoints and the OAuth token
// endpoint. It is safe for concurrent use.
type Server struct {
	*httptest.Server

	// Token, when set, is the only bearer token accepted
	Token        string
	ClientID     string
	ClientSecret string

	mu       sync.Mutex
	spaces   map[string]map[string]json.RawMessage
	seq      map[string]int
	nextSeq  int
	requests []Request
	failures map[string]failure
}

// NewServer starts a server and registers its shutdown with t
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		spaces:   map[string]map[string]json.RawMessage{},
		seq:      map[string]int{},
		failures: map[string]failure{},
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/oidc/v1/token", s.issueToken)
	r.Route(spacesPath, func(r chi.Router) {
		r.Use(s.authenticate, s.injectFailures)
		r.Get("/", s.listSpaces)
		r.Post("/", s.createSpace)
		r.Get("/{spaceID}", s.getSpace)
		r.Patch("/{spaceID}", s.updateSpace)
		r.Delete("/{spaceID}", s.trashSpace)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Fail makes every request matching method and path (e.g. "/api/2.0/genie/spaces/x")
// respond with the given error until cleared with ClearFailures.
func (s *Server) Fail(method, path string, status int, errorCode, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, code: errorCode, message: message}
}

// FailAll is Fail for every spaces endpoint
func (s *Server) FailAll(status int, errorCode, message string) {
	s.Fail("*", "*", status, errorCode, message)
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// Seed stores a space as if it had been created, returning its id
func (s *Server) Seed(fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := map[string]json.RawMessage{}
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("genietest: cannot marshal seed field %s: %v", k, err))
		}
		stored[k] = b
	}
	return s.insertLocked(stored)
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or nil if there were none
func (s *Server) LastRequest() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	r := s.requests[len(s.requests)-1]
	return &r
}

// StoredField returns the raw stored value of a space field
func (s *Server) StoredField(spaceID, field string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	space, ok := s.spaces[spaceID]
	if !ok {
		return nil, false
	}
	v, ok := space[field]
	return v, ok
}

// SpaceCount returns the number of live spaces
func (s *Server) SpaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spaces)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, http.StatusUnauthorized, errUnauthenticated, "invalid access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		if !ok {
			f, ok = s.failures["* *"]
		}
		s.mu.Unlock()
		if ok {
			writeError(w, f.status, f.code, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != s.ClientID || secret != s.ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.Token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *Server) listSpaces(w http.ResponseWriter, r *http.Request) {
	pageSize := defaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errInvalidParam, "page_size must be a positive integer")
			return
		}
		pageSize = n
	}
	offset := 0
	if v := r.URL.Query().Get("page_token"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errInvalidParam, "invalid page_token")
			return
		}
		offset = n
	}

	s.mu.Lock()
	ids := s.sortedIDsLocked()
	resp := map[string]any{}
	var page []map[string]json.RawMessage
	for i := offset; i < len(ids) && i < offset+pageSize; i++ {
		page = append(page, summary(s.spaces[ids[i]]))
	}
	if len(page) > 0 {
		resp["spaces"] = page
	}
	if offset+pageSize < len(ids) {
		resp["next_page_token"] = strconv.Itoa(offset + pageSize)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createSpace(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidParam, "malformed request body")
		return
	}
	for _, required := range []string{"warehouse_id", "parent_path"} {
		if _, ok := body[required]; !ok {
			writeError(w, http.StatusBadRequest, errInvalidParam, required+" is required")
			return
		}
	}
	delete(body, "space_id")

	s.mu.Lock()
	id := s.insertLocked(body)
	resp := summary(s.spaces[id])
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getSpace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "spaceID")
	includeSerialized := r.URL.Query().Get("include_serialized_space") == "true"

	s.mu.Lock()
	space, ok := s.spaces[id]
	var resp map[string]json.RawMessage
	if ok {
		if includeSerialized {
			resp = copyFields(space)
		} else {
			resp = summary(space)
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, errNotFound, fmt.Sprintf("Genie space %s does not exist.", id))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) updateSpace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "spaceID")
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidParam, "malformed request body")
		return
	}
	delete(body, "space_id")

	s.mu.Lock()
	space, ok := s.spaces[id]
	var resp map[string]json.RawMessage
	if ok {
		for k, v := range body {
			space[k] = v
		}
		resp = summary(space)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, errNotFound, fmt.Sprintf("Genie space %s does not exist.", id))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) trashSpace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "spaceID")

	s.mu.Lock()
	_, ok := s.spaces[id]
	delete(s.spaces, id)
	delete(s.seq, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, errNotFound, fmt.Sprintf("Genie space %s does not exist.", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) insertLocked(fields map[string]json.RawMessage) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	fields["space_id"] = mustMarshal(id)
	if _, ok := fields["creator"]; !ok {
		fields["creator"] = mustMarshal("genietest@example.com")
	}
	fields["create_time"] = mustMarshal(time.Now().UnixMilli())
	s.spaces[id] = fields
	s.seq[id] = s.nextSeq
	s.nextSeq++
	return id
}

func (s *Server) sortedIDsLocked() []string {
	ids := make([]string, 0, len(s.spaces))
	for id := range s.spaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.seq[ids[i]] < s.seq[ids[j]] })
	return ids
}

func summary(space map[string]json.RawMessage) map[string]json.RawMessage {
	out := copyFields(space)
	delete(out, serializedSpace)
	return out
}

func copyFields(space map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(space))
	for k, v := range space {
		out[k] = v
	}
	return out
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error_code": code, "message": message})
}

// writeJSON writes v as the response body. A single space is written field by field so
// stored payloads go back with the bytes they were received with.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var body []byte
	var err error
	if fields, ok := v.(map[string]json.RawMessage); ok {
		body, err = rawjson.Object(fields)
	} else {
		body, err = rawjson.Encode(v)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
