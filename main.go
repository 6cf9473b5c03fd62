// Command lending runs the library lending catalog as an interactive shell
// or as a JSON HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"library-lending/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "lending",
		Short:         "Library lending catalog for books, magazines and videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.Bool("seed", false, "load the demo items, patrons and loans")
	flags.String("import", "", "CSV file of items to load at startup")
	for key, name := range map[string]string{
		"config":              "config",
		"log.level":           "log-level",
		"log.format":          "log-format",
		"catalog.seed":        "seed",
		"catalog.import_path": "import",
	} {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(name)))
	}

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Run the interactive lending shell (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, v)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lending catalog over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	serveCmd.Flags().String("addr", ":8080", "listen address")
	cobra.CheckErr(v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")))

	root.AddCommand(shellCmd, serveCmd)
	return root
}

func runShell(cmd *cobra.Command, v *viper.Viper) error {
	injector := newContainer(v)
	mgr, err := do.Invoke[*managerHandle](injector)
	if err != nil {
		return err
	}
	log := do.MustInvoke[*slog.Logger](injector)
	defer shutdown(injector, log)

	newShell(mgr.Manager, cmd.InOrStdin(), cmd.OutOrStdout()).run()
	return nil
}

func runServe(ctx context.Context, v *viper.Viper) error {
	injector := newContainer(v)
	srv, err := do.Invoke[*httpServerHandle](injector)
	if err != nil {
		return err
	}
	log := do.MustInvoke[*slog.Logger](injector)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			shutdown(injector, log)
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down server gracefully")
	}

	shutdown(injector, log)
	log.Info("server stopped")
	return nil
}
