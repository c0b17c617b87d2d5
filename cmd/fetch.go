package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"docsite/fetch"

	"github.com/spf13/cobra"
)

var (
	fetchListen string
	fetchDocID  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the plain text of one Google Doc",
	Long: `Mints an access token from GOOGLE_REFRESH_TOKEN, reads GOOGLE_DOC_ID through
the Docs API and prints {"statusCode": ..., "body": ...}.

With --listen the same result is served over HTTP on every request.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchListen, "listen", "", "Serve the document over HTTP on this address, e.g. :8888")
	fetchCmd.Flags().StringVar(&fetchDocID, "doc", "", "Google Doc ID (default GOOGLE_DOC_ID)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fetchDocID != "" {
		cfg.DocumentID = fetchDocID
	}
	if err := cfg.ValidateFetch(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	handler := fetch.NewHandler(fetch.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
		DocumentID:   cfg.DocumentID,
	}, logger.Named("fetch"))

	if fetchListen == "" {
		res := handler.Handle(ctx)
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("fetch returned status %d", res.StatusCode)
		}
		return nil
	}

	server := &http.Server{
		Addr:         fetchListen,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fetch server listening", "addr", fetchListen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fetch server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down fetch server")
	return server.Shutdown(shutdownCtx)
}
