package cmd

import (
	"errors"
	"fmt"

	"docsite/auth"
	"docsite/ingestion"
	"docsite/site"
	"docsite/storage"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	buildFolderID    string
	buildOutputDir   string
	buildConcurrency int
	buildNoIndex     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the static site from the Drive folder",
	Long: `Lists every Google Doc in the folder, exports each one as HTML and
writes <slug>.html plus index.html into the output directory.

The folder ID can be found in the Google Drive URL:
https://drive.google.com/drive/folders/FOLDER_ID_HERE`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildFolderID, "folder", "f", "", "Google Drive folder ID (default DRIVE_FOLDER_ID)")
	buildCmd.Flags().StringVarP(&buildOutputDir, "output", "o", "", "Output directory (default OUTPUT_DIR)")
	buildCmd.Flags().IntVarP(&buildConcurrency, "concurrency", "c", 0, "Documents exported in parallel (default BUILD_CONCURRENCY)")
	buildCmd.Flags().BoolVar(&buildNoIndex, "no-index", false, "Do not record the built pages in the search index")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if buildFolderID != "" {
		cfg.FolderID = buildFolderID
	}
	if buildOutputDir != "" {
		cfg.OutputDir = buildOutputDir
	}
	if buildConcurrency > 0 {
		cfg.Concurrency = buildConcurrency
	}
	if err := cfg.ValidateBuild(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	fs := afero.NewOsFs()
	authenticator := auth.NewGoogleAuthenticator(auth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{auth.DriveReadonlyScope},
	}, auth.NewTokenStore(fs, cfg.TokenPath), logger.Named("auth"))

	client, err := authenticator.GetHTTPClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate, run 'docsite auth' first: %w", err)
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	var recorder site.Recorder
	if !buildNoIndex {
		db := storage.NewSQLiteDB(cfg.IndexDB)
		if err := db.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize page index: %w", err)
		}
		defer db.Close()
		recorder = db
	}

	builder := site.NewBuilder(
		fs,
		ingestion.NewDriveLister(service, logger.Named("drive")),
		ingestion.NewDriveExporter(service, ingestion.ExportOptions{
			Timeout:  cfg.ExportTimeout,
			MaxBytes: cfg.ExportMaxBytes,
		}, logger.Named("export")),
		recorder,
		logger.Named("build"),
	)

	res, err := builder.Build(ctx, site.Options{
		FolderID:     cfg.FolderID,
		OutputDir:    cfg.OutputDir,
		TemplatePath: cfg.TemplatePath,
		SiteTitle:    cfg.SiteTitle,
		Concurrency:  cfg.Concurrency,
	})
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			logger.Error("Google API request failed", "code", apiErr.Code, "body", apiErr.Body)
		}
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("Built %d page(s) into %s\n", len(res.Pages), res.OutputDir)
	return nil
}
