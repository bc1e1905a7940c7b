package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pqlc-dev/pqlc/internal/compiler"
	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/diagnostic"
)

// NewServeCommand starts a stateless HTTP compile endpoint.
func NewServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a stateless HTTP compile endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8765", "address to listen on")
	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	cc, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cc.Close()

	r := chi.NewMux()
	r.Use(middleware.Logger, middleware.Recoverer)
	r.Post("/compile", handleCompile(cc.compiler, cc.opts))

	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
	return http.ListenAndServe(addr, r)
}

type compileRequest struct {
	Source string `json:"source"`
	Target string `json:"target,omitempty"`
}

type compileResponse struct {
	SQL         string   `json:"sql,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func handleCompile(c *compiler.Compiler, defaultOpts compiler.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var creq compileRequest
		if err := json.Unmarshal(body, &creq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		opts := defaultOpts
		if creq.Target != "" {
			target, ok := dialect.Parse(creq.Target)
			if !ok {
				http.Error(w, fmt.Sprintf("unknown target dialect %q", creq.Target), http.StatusBadRequest)
				return
			}
			opts.Target = target
		}

		q, diags := c.Compile(creq.Source, opts)

		w.Header().Set("Content-Type", "application/json")
		if len(diags) > 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			resp := compileResponse{}
			for _, d := range diags {
				resp.Diagnostics = append(resp.Diagnostics, diagnostic.Render([]*diagnostic.Error{d}, creq.Source, diagnostic.Plain))
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		_ = json.NewEncoder(w).Encode(compileResponse{SQL: c.Render(q, opts)})
	}
}
