package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/montfort-alumni/slambook-cli/internal/config"
	"github.com/montfort-alumni/slambook-cli/internal/slambook"
	"github.com/montfort-alumni/slambook-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the slambook upload server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, cfg.Server),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the HTTP surface: the upload endpoint, run history, and
// a health probe.
func newRouter(st store.Store, scfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: scfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	// Uploads rewrite whole answer sets; the limiter keeps a misbehaving
	// client from hammering the matcher with repeated full-table runs.
	limiter := rate.NewLimiter(rate.Limit(scfg.UploadPerMinute/60), scfg.UploadBurst)

	ing := newIngestor(st)
	maxBytes := scfg.MaxUploadMB << 20

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/slambook/runs", func(w http.ResponseWriter, req *http.Request) {
		runs, err := st.ListRuns(req.Context(), 50)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list runs")
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Post("/api/slambook/upload", func(w http.ResponseWriter, req *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many uploads, slow down")
			return
		}

		req.Body = http.MaxBytesReader(w, req.Body, maxBytes)
		file, header, err := req.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %s", err))
			return
		}

		var report *slambook.Report
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".csv":
			report, err = ing.Run(req.Context(), header.Filename, string(data))
		case ".xlsx":
			var tokens [][]string
			tokens, err = slambook.ReadWorkbookBytes(data)
			if err == nil {
				report, err = ing.RunRows(req.Context(), header.Filename, tokens, nil)
			}
		default:
			writeError(w, http.StatusBadRequest, "unsupported file type (want .csv or .xlsx)")
			return
		}

		if err != nil {
			if slambook.IsInputError(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			zap.L().Error("upload ingest failed",
				zap.String("file", header.Filename),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "ingestion failed")
			return
		}

		writeJSON(w, http.StatusOK, report)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
