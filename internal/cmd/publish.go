package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/figshare/internal/capture"
	"github.com/tomasbasham/figshare/internal/figshare"
	"github.com/tomasbasham/figshare/internal/operation"
)

type PublishOptions struct {
	root *FigshareOptions

	Title       string
	Description string
	DefinedType string
	Links       []string
	Tags        []string
	Output      string
	HARPath     string
	ArchiveDir  string
	Bucket      string
}

var (
	publishLong = templates.LongDesc(`
		Create a draft article, upload a text file built from its title and
		description, attach links and tags one request at a time, and print
		every response together with the final article.

		Values come from the config file's article section; flags override
		them. Nothing is rolled back when a step fails: the draft and anything
		already attached stay on figshare.`)

	publishExample = templates.Examples(`
		# Publish from a config file
		figshare publish --config article.yaml

		# Publish from flags and keep a HAR of the session
		figshare publish --title "OSR test" --description "Very long OSR Newdump" \
			--link http://openscienceradio.de/666 --tag "Open Science" --tag Podcast \
			--har session.har`)
)

func NewPublishOptions(root *FigshareOptions) *PublishOptions {
	return &PublishOptions{
		root: root,
	}
}

func NewPublishCommand(o *PublishOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publish",
		Short:   "Create and populate a draft article",
		Long:    publishLong,
		Example: publishExample,
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

	flags := cmd.Flags()
	flags.StringVarP(&o.Title, "title", "t", "", "Article title")
	flags.StringVarP(&o.Description, "description", "d", "", "Article description")
	flags.StringVar(&o.DefinedType, "type", "", "Article defined type (default: dataset)")
	flags.StringArrayVar(&o.Links, "link", nil, "Link to attach (repeatable)")
	flags.StringArrayVar(&o.Tags, "tag", nil, "Tag to attach (repeatable)")
	flags.StringVarP(&o.Output, "output", "o", outputJSON, "Output format: json or yaml")
	flags.StringVar(&o.HARPath, "har", "", "Write a HAR of the API session to this file")
	flags.StringVar(&o.ArchiveDir, "archive-dir", "", "Archive artefacts under this directory")
	flags.StringVarP(&o.Bucket, "bucket", "b", "", "Archive artefacts to this GCS bucket")

	return cmd
}

// Complete applies the command's flags over the loaded configuration.
func (o *PublishOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg := o.root.config
	flags := cmd.Flags()

	if flags.Changed("title") {
		cfg.Article.Title = o.Title
	}
	if flags.Changed("description") {
		cfg.Article.Description = o.Description
	}
	if flags.Changed("type") {
		cfg.Article.DefinedType = o.DefinedType
	}
	if flags.Changed("link") {
		cfg.Article.Links = o.Links
	}
	if flags.Changed("tag") {
		cfg.Article.Tags = o.Tags
	}
	if flags.Changed("archive-dir") {
		cfg.Archive.Dir = o.ArchiveDir
	}
	if flags.Changed("bucket") {
		cfg.Archive.Bucket = o.Bucket
	}
	return nil
}

func (o *PublishOptions) Validate() error {
	if err := validateOutput(o.Output); err != nil {
		return err
	}
	return o.root.config.Article.Normalize()
}

func (o *PublishOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := o.root.config
	log := o.root.logger

	archive, closeArchive, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	defer closeArchive()

	recorder := capture.NewRecorder(nil)
	uploader, err := figshare.NewFromFile(cfg.Credentials,
		figshare.WithBaseURL(cfg.BaseURL),
		figshare.WithHTTPClient(recorder.Client()),
		figshare.WithLogger(log),
		figshare.WithQuiet(cfg.Quiet),
	)
	if err != nil {
		return err
	}

	log.WithField("title", cfg.Article.Title).Info("publishing article")
	report, publishErr := figshare.Publish(ctx, uploader, cfg.Article)

	// The report and HAR are written even when publishing failed part way.
	if report != nil {
		if err := printOutput(o.root.Out, o.Output, report); err != nil {
			return err
		}
	}

	if o.HARPath != "" {
		if err := writeHAR(o.HARPath, recorder); err != nil {
			return err
		}
	}

	runID := uuid.New().String()
	artefacts, err := operation.ArchiveArtefacts(ctx, runID, report, recorder, archive)
	for _, a := range artefacts {
		fmt.Fprintf(o.root.ErrOut, "Archived %s: %s\n", a.Name, a.URL)
	}
	if err != nil {
		return fmt.Errorf("failed to archive artefacts: %w", err)
	}

	if publishErr != nil {
		return fmt.Errorf("publish failed: %w", publishErr)
	}
	return nil
}

func writeHAR(path string, recorder *capture.Recorder) error {
	harJSON, err := json.MarshalIndent(recorder.HAR(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal HAR: %w", err)
	}
	if err := os.WriteFile(path, harJSON, 0o644); err != nil {
		return fmt.Errorf("failed to write HAR file: %w", err)
	}
	return nil
}
