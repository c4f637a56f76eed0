package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/figshare/internal/figshare"
)

type InfoOptions struct {
	root *FigshareOptions

	ArticleID int64
	Output    string
}

var (
	infoLong = templates.LongDesc(`Fetch the full representation of one of your articles.`)

	infoExample = templates.Examples(`
		# Print an article as YAML
		figshare info 1234567 --output yaml`)
)

func NewInfoOptions(root *FigshareOptions) *InfoOptions {
	return &InfoOptions{
		root: root,
	}
}

func NewInfoCommand(o *InfoOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "info ARTICLE_ID",
		DisableFlagsInUseLine: true,
		Short:                 "Show an article",
		Long:                  infoLong,
		Example:               infoExample,
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

	cmd.Flags().StringVarP(&o.Output, "output", "o", outputJSON, "Output format: json or yaml")

	return cmd
}

func (o *InfoOptions) Complete(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one article id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid article id %q: %w", args[0], err)
	}
	o.ArticleID = id
	return nil
}

func (o *InfoOptions) Validate() error {
	if o.ArticleID <= 0 {
		return fmt.Errorf("article id must be positive, got %d", o.ArticleID)
	}
	return validateOutput(o.Output)
}

func (o *InfoOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := o.root.config
	uploader, err := figshare.NewFromFile(cfg.Credentials,
		figshare.WithBaseURL(cfg.BaseURL),
		figshare.WithLogger(o.root.logger),
		figshare.WithQuiet(cfg.Quiet),
	)
	if err != nil {
		return err
	}

	resp, err := uploader.ArticleInfo(ctx, o.ArticleID)
	if err != nil {
		return fmt.Errorf("failed to fetch article %d: %w", o.ArticleID, err)
	}

	return printOutput(o.root.Out, o.Output, resp.Body)
}
