package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/orchestrator"
	"github.com/wilhg/wellagent/pkg/scheduler"
	"github.com/wilhg/wellagent/pkg/wellness"
)

func newServeCmd(cfgPath func() string) *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control plane and the cycle scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a, err := newApp(ctx, cfgPath())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			srv := &http.Server{
				Addr:              a.cfg.Addr,
				Handler:           otelhttp.NewHandler(buildMux(a.orch), "wellagent"),
				ReadHeaderTimeout: 10 * time.Second,
			}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.log.Info("listening", "addr", a.cfg.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(sctx)
			})
			if !noScheduler {
				g.Go(func() error {
					return scheduler.New(a.orch,
						scheduler.WithInterval(a.cfg.CycleInterval),
						scheduler.WithConcurrency(a.cfg.Concurrency),
						scheduler.WithLogger(a.log),
					).Run(gctx)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve HTTP only, without periodic cycles")
	return cmd
}

// controlPlane is the orchestrator surface the HTTP API needs.
type controlPlane interface {
	CognitiveCycle(ctx context.Context, userID string) (orchestrator.CycleReport, error)
	PendingAdaptations(ctx context.Context, userID string) ([]wellness.Adaptation, error)
	DecideAdaptation(ctx context.Context, userID, id string, approved bool) (wellness.Adaptation, error)
}

func buildMux(cp controlPlane) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /v1/cycles", func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user == "" {
			errmodel.WriteHTTP(w, r, errmodel.Validation("missing_user", "query parameter user is required", nil))
			return
		}
		rep, err := cp.CognitiveCycle(r.Context(), user)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		writeJSON(w, rep)
	})
	mux.HandleFunc("GET /v1/adaptations", func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user == "" {
			errmodel.WriteHTTP(w, r, errmodel.Validation("missing_user", "query parameter user is required", nil))
			return
		}
		pending, err := cp.PendingAdaptations(r.Context(), user)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		writeJSON(w, pending)
	})
	mux.HandleFunc("POST /v1/adaptations/{id}/decision", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID   string `json:"userId"`
			Approved *bool  `json:"approved"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" || body.Approved == nil {
			errmodel.WriteHTTP(w, r, errmodel.Validation("invalid_body", "userId and approved are required", nil))
			return
		}
		a, err := cp.DecideAdaptation(r.Context(), body.UserID, r.PathValue("id"), *body.Approved)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		writeJSON(w, a)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
