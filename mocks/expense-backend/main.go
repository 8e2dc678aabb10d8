// Command expense-backend is a deterministic stand-in for the expense
// extraction and policy backend. It serves the four collaborator endpoints
// the review service talks to, with no external dependencies: extraction
// parses the uploaded bytes as receipt text instead of running OCR, policy
// checks are the fixed rule set, and submissions live in process memory.
//
// Intended for local development and end-to-end tests only.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := &server{
		log:         log,
		submissions: newSubmissionLog(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", srv.handleRoot)
	mux.HandleFunc("POST /api/extract", srv.handleExtract)
	mux.HandleFunc("POST /api/policy/validate", srv.handleValidate)
	mux.HandleFunc("POST /api/explain", srv.handleExplain)
	mux.HandleFunc("POST /api/submission/create", srv.handleSubmission)

	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      srv.logRequests(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("expense backend mock listening", "addr", *addr)
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type server struct {
	log         *slog.Logger
	submissions *submissionLog
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Expense backend mock running.",
	})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

// writeDetail writes the backend error envelope: clients look for a
// top-level "detail" string.
func (s *server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return false
	}
	return true
}
