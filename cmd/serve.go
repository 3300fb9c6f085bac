package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for enrichment requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Get("/verify", func(w http.ResponseWriter, req *http.Request) {
			result := env.Client.Verify(req.Context())
			w.Header().Set("Content-Type", "application/json")
			if !result.Success {
				w.WriteHeader(http.StatusBadGateway)
			}
			json.NewEncoder(w).Encode(result)
		})

		r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name    string `json:"name"`
				Website string `json:"website"`
				Type    string `json:"type"`
				Origin  string `json:"origin"`
				ID      string `json:"id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if body.Name == "" && body.Website == "" {
				http.Error(w, `{"error":"name or website is required"}`, http.StatusBadRequest)
				return
			}
			if body.Origin == "" {
				body.Origin = "api"
			}

			entity := buildEntity(body.Name, body.Website, body.Type, body.Origin, body.ID)

			// Run enrichment asynchronously; the caller polls the platform for
			// resulting clues.
			go func() {
				clues, err := env.Enricher.EnrichEntity(ctx, entity)
				if err != nil {
					zap.L().Error("enrichment failed",
						zap.String("entity", entity.Name),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("enrichment complete",
					zap.String("entity", entity.Name),
					zap.Int("clues", len(clues)),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "accepted",
				"entity": entity.OriginCode.String(),
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
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
