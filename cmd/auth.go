package cmd

import (
	"fmt"

	"docsite/auth"

	"github.com/pkg/browser"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	authPersistent bool
	authNoBrowser  bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Google Drive",
	Long: `Starts a local listener on the redirect URI, opens the Google consent
screen and saves the returned tokens to the credential file.

By default the listener stops after the first successful exchange. With
--persistent it keeps serving /auth and the callback until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().BoolVar(&authPersistent, "persistent", false, "Keep the listener running after a successful exchange")
	authCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateOAuth(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	authenticator := auth.NewGoogleAuthenticator(auth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{auth.DriveReadonlyScope, auth.DocumentsReadonlyScope},
	}, auth.NewTokenStore(afero.NewOsFs(), cfg.TokenPath), logger.Named("auth"))

	mode := auth.ModeOneShot
	if authPersistent {
		mode = auth.ModePersistent
	}
	server := auth.NewCallbackServer(authenticator, mode, logger.Named("callback"))

	consentURL := server.AuthURL()
	fmt.Printf("Open this URL to authorize:\n%s\n", consentURL)
	if !authNoBrowser {
		if err := browser.OpenURL(consentURL); err != nil {
			logger.Warn("unable to open a browser", "error", err)
		}
	}

	tok, err := server.Run(ctx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if tok != nil {
		logger.Info("authorization complete", "token_path", cfg.TokenPath)
	}
	return nil
}
