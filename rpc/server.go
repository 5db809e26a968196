package rpc

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/gateway"
	"github.com/sigstream/sigstream/log"
	"github.com/sigstream/sigstream/metadata"
)

// Server is a JSON-RPC HTTP server dispatching requests to the SigAPI.
// Single requests and batches are supported.
type Server struct {
	api    *SigAPI
	mux    *http.ServeMux
	logger *log.Logger
}

// NewServer creates a new JSON-RPC server. gw and meta may be nil.
func NewServer(registry *core.Registry, gw *gateway.Gateway, meta *metadata.Client) *Server {
	s := &Server{
		api:    NewSigAPI(registry, gw, meta),
		mux:    http.NewServeMux(),
		logger: log.Module("rpc"),
	}
	s.mux.HandleFunc("/", s.handleRPC)
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// API returns the underlying API service, used for in-process dispatch
// in tests.
func (s *Server) API() *SigAPI {
	return s.api
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		writeError(w, nil, ErrCodeParse, "failed to read request body")
		return
	}

	// A batch is a JSON array of requests.
	trimmed := firstNonSpace(body)
	if trimmed == '[' {
		var reqs []Request
		if err := json.Unmarshal(body, &reqs); err != nil {
			writeError(w, nil, ErrCodeParse, "invalid JSON batch")
			return
		}
		resps := make([]*Response, 0, len(reqs))
		for i := range reqs {
			resps = append(resps, s.api.HandleRequest(&reqs[i]))
		}
		writeJSON(w, resps)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, ErrCodeParse, "invalid JSON")
		return
	}
	writeJSON(w, s.api.HandleRequest(&req))
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeJSON(w, &Response{
		JSONRPC: "2.0",
		Error:   &RPCError{Code: code, Message: message},
		ID:      id,
	})
}
