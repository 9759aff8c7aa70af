package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/activity"
	"github.com/ziadkadry99/docqa/internal/dashboard"
	"github.com/ziadkadry99/docqa/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	Long:  `Starts the docqa web UI: upload documents, pick them by number, delete them and ask questions with streamed answers.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow every CORS origin (development only)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	allowAll, _ := cmd.Flags().GetBool("allow-all-origins")

	eng, cleanup, err := buildEngine(cfg, engineOptions{withLLM: true})
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(server.Config{Port: cfg.Server.Port, AllowAll: allowAll || cfg.Server.AllowAll})
	if acts := eng.Activity(); acts != nil {
		activity.RegisterRoutes(srv.Router(), acts)
	}
	timeout := time.Duration(cfg.QA.TimeoutSecs) * time.Second * 2
	dashboard.New(eng, timeout).RegisterRoutes(srv.Router())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Fprintf(cmd.ErrOrStderr(), "docqa web UI on http://localhost%s (store=%s)\n", srv.Addr(), cfg.Store.Dir)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
