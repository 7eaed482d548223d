package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/sitetokens/health"
	"github.com/jonwraymond/sitetokens/observe"
	"github.com/jonwraymond/sitetokens/service"
)

const shutdownTimeout = 5 * time.Second

func (c *CLI) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve token resolution and health endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(svc *service.Service) error {
				srv := &http.Server{
					Addr:              addr,
					Handler:           NewMux(svc),
					ReadHeaderTimeout: 5 * time.Second,
				}
				return serve(cmd.Context(), srv)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ResolveResponse is the JSON body returned by the /resolve endpoint.
type ResolveResponse struct {
	Query  string `json:"query"`
	Path   string `json:"path"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewMux returns the HTTP handler tree for svc: the health endpoints plus
// GET /resolve?q=QUERY&path=PATH[&escape=true].
func NewMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, svc.Health())
	mux.HandleFunc("GET /resolve", resolveHandler(svc))
	return mux
}

func resolveHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		resp := ResolveResponse{Query: q.Get("q"), Path: q.Get("path")}
		escape := q.Get("escape") == "true"

		status := http.StatusOK
		result, err := svc.ResolvePath(r.Context(), resp.Query, resp.Path, escape)
		switch {
		case errors.Is(err, service.ErrNodeNotFound):
			status = http.StatusNotFound
		case err != nil:
			status = http.StatusInternalServerError
		}
		if err != nil {
			resp.Error = err.Error()
			svc.Logger().Warn(r.Context(), "resolve request failed",
				observe.F("context.path", resp.Path), observe.Err(err))
		} else {
			resp.Result = result
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
