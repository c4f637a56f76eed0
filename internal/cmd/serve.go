package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/figshare/internal/credentials"
	"github.com/tomasbasham/figshare/internal/figshare"
	"github.com/tomasbasham/figshare/internal/operation"
	"github.com/tomasbasham/figshare/internal/server"
)

type ServeOptions struct {
	root *FigshareOptions

	Port       int
	Bucket     string
	ArchiveDir string
}

var (
	serveLong = templates.LongDesc(`
		Start the publish HTTP server.

		POST /articles enqueues a publish and returns an operation id;
		GET /articles/{id} reports its status, the figshare article id and
		the archived artefacts.`)

	serveExample = templates.Examples(`
		# Start on the default port, archiving to a local directory
		figshare serve --archive-dir ./runs

		# Start on a custom port with a specific GCS bucket
		figshare serve --port 9090 --bucket my-figshare-runs`)
)

func NewServeOptions(root *FigshareOptions) *ServeOptions {
	return &ServeOptions{
		root: root,
	}
}

func NewServeCommand(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the publish HTTP server",
		Long:    serveLong,
		Example: serveExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			if err := o.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&o.Port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVarP(&o.Bucket, "bucket", "b", "", "GCS bucket name for artefact storage")
	cmd.Flags().StringVar(&o.ArchiveDir, "archive-dir", "", "Directory for artefact storage")

	return cmd
}

func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg := o.root.config
	if cmd.Flags().Changed("bucket") {
		cfg.Archive.Bucket = o.Bucket
	}
	if cmd.Flags().Changed("archive-dir") {
		cfg.Archive.Dir = o.ArchiveDir
	}
	return nil
}

func (o *ServeOptions) Validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	return nil
}

func (o *ServeOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := o.root.config
	log := o.root.logger

	// Credentials are read once; every operation gets its own session.
	creds, err := credentials.Load(cfg.Credentials)
	if err != nil {
		return err
	}

	archive, closeArchive, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	defer closeArchive()
	if archive == nil {
		log.Warn("no archive configured; artefacts will not be kept")
	}

	newUploader := func(hc *http.Client) (*figshare.Uploader, error) {
		return figshare.New(creds,
			figshare.WithBaseURL(cfg.BaseURL),
			figshare.WithHTTPClient(hc),
			figshare.WithLogger(log),
			figshare.WithQuiet(cfg.Quiet),
		)
	}

	srv := server.New(operation.NewMemoryStore(), archive, newUploader, log)

	addr := fmt.Sprintf(":%d", o.Port)
	log.WithField("addr", addr).Info("starting figshare publish server")
	if err := srv.ListenAndServe(ctx, addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
