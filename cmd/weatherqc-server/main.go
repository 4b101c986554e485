// Command weatherqc-server is an optional adjunct surface (§11): it serves
// nothing the engine's contract requires, only a small read-only HTTP view
// over a run-history database that cmd/weatherqc has been writing to with
// --run-db, plus tsweb/tailsql's live-debugging routes for on-call
// inspection after a batch run. It never invokes the pipeline itself.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/httputil"
	"github.com/nhg-hydromet/weatherqc/internal/store"
)

var (
	listen = flag.String("listen", ":8090", "HTTP listen address")
	dbPath = flag.String("run-db", "weatherqc-runs.db", "Path to the run-history sqlite database")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	s, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("weatherqc-server: open run-history database: %v", err)
	}
	defer s.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/runs", runsHandler(s))
	mux.HandleFunc("/runs/flags", flagCountsHandler(s))
	s.AttachAdminRoutes(mux)

	srv := &http.Server{Addr: *listen, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("weatherqc-server: listening on %s", *listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("weatherqc-server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("weatherqc-server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("weatherqc-server: graceful shutdown failed: %v", err)
	}
}

// runsHandler serves GET /runs?station=X&limit=N, the most recent runs for
// a station, newest first.
func runsHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		station := r.URL.Query().Get("station")
		if station == "" {
			httputil.BadRequest(w, "station query parameter is required")
			return
		}
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httputil.BadRequest(w, "limit must be a positive integer")
				return
			}
			limit = n
		}

		runs, err := s.RecentRuns(station, limit)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, runs)
	}
}

// flagCountsHandler serves GET /runs/flags?id=<run id>, the per-channel
// flag-token histogram FinishRun recorded for that run.
func flagCountsHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		runID := r.URL.Query().Get("id")
		if runID == "" {
			httputil.BadRequest(w, "id query parameter is required")
			return
		}
		counts, err := s.FlagCounts(runID)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, counts)
	}
}
