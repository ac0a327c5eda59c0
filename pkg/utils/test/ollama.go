package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

// FakeOllama serves /api/embed with the same deterministic vectors as
// MockEmbedder, so commands that build their own embedder from config can be
// tested end to end.
type FakeOllama struct {
	*httptest.Server

	embedder *MockEmbedder
	requests atomic.Int64
}

// NewFakeOllama starts a server returning dims-sized embeddings. Callers must
// Close it.
func NewFakeOllama(dims int) *FakeOllama {
	f := &FakeOllama{embedder: NewMockEmbedder(dims)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embed", f.handleEmbed)
	f.Server = httptest.NewServer(mux)

	return f
}

// Requests reports how many embed calls were served.
func (f *FakeOllama) Requests() int {
	return int(f.requests.Load())
}

func (f *FakeOllama) handleEmbed(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)

	var req struct {
		Model string          `json:"model"`
		Input json.RawMessage `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var texts []string
	if err := json.Unmarshal(req.Input, &texts); err != nil {
		var single string
		if err := json.Unmarshal(req.Input, &single); err != nil {
			http.Error(w, "input must be a string or a list of strings", http.StatusBadRequest)
			return
		}
		texts = []string{single}
	}

	vectors, err := f.embedder.EmbedBatch(r.Context(), texts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model":      req.Model,
		"embeddings": vectors,
	})
}
