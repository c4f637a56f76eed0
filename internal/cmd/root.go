package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cliflag "github.com/tomasbasham/cli-runtime/flag"
	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/printer"
	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/figshare/internal/config"
)

var (
	rootLong = templates.LongDesc(`
		Publish articles to figshare through the v1 API.

		Requests are signed with OAuth1 using the four secrets in the
		credentials file. A .env file in the working directory is loaded
		before any command runs, so FIGSHARE_ variables may live there.`)

	rootExamples = templates.Examples(`
		# Publish an article described in a config file
		figshare publish --config article.yaml

		# Show an existing article
		figshare info 1234567`)

	// Injected at build time using ldflags.
	version = ""
	commit  = ""
)

// FigshareOptions defines the options shared by every `figshare` command.
type FigshareOptions struct {
	ConfigPath  string
	Credentials string
	BaseURL     string
	LogLevel    string
	Quiet       bool

	// Populated by Complete before any sub-command runs.
	config *config.Config
	logger *logrus.Logger

	iooption.IOStreams
}

// NewFigshareOptions provides an initialised FigshareOptions instance.
func NewFigshareOptions(streams iooption.IOStreams) *FigshareOptions {
	return &FigshareOptions{
		IOStreams: streams,
	}
}

// NewRootCommand creates the `figshare` command with default arguments.
func NewRootCommand() *cobra.Command {
	options := NewFigshareOptions(iooption.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	})

	return NewRootCommandWithArgs(options)
}

// NewRootCommandWithArgs creates the `figshare` command and its nested
// children.
func NewRootCommandWithArgs(o *FigshareOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "figshare [command]",
		Version:               versionInfo(),
		DisableFlagsInUseLine: true,
		Short:                 "figshare article publishing tool",
		Long:                  rootLong,
		Example:               rootExamples,
		SilenceErrors:         true,
		SilenceUsage:          true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.Complete(cmd)
		},
	}

	printerOpts := printer.WarningPrinterOptions{Color: true}
	printer := printer.NewWarningPrinter(o.ErrOut, printerOpts)
	cmd.SetGlobalNormalizationFunc(cliflag.WarnWordSepNormalizeFunc(printer))

	pflags := cmd.PersistentFlags()
	pflags.StringVarP(&o.ConfigPath, "config", "c", "", "Config file (YAML or JSON)")
	pflags.StringVar(&o.Credentials, "credentials", "", "Credentials file (default: client_auth_etc.json)")
	pflags.StringVar(&o.BaseURL, "base-url", "", "figshare API root")
	pflags.StringVar(&o.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	pflags.BoolVarP(&o.Quiet, "quiet", "q", false, "Suppress per-response diagnostics")

	cmd.AddCommand(NewPublishCommand(NewPublishOptions(o)))
	cmd.AddCommand(NewInfoCommand(NewInfoOptions(o)))
	cmd.AddCommand(NewServeCommand(NewServeOptions(o)))

	// The globlal normalisation function ensures that all flags specified meet
	// the desired format, changing users' input if necessary.
	cmd.SetGlobalNormalizationFunc(cliflag.WordSepNormalizeFunc())

	return cmd
}

// Complete loads .env, the config file and the environment, applies the
// persistent flags on top, and builds the logger.
func (o *FigshareOptions) Complete(cmd *cobra.Command) error {
	// A missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("credentials") {
		cfg.Credentials = o.Credentials
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = o.BaseURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if flags.Changed("quiet") {
		cfg.Quiet = o.Quiet
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(o.ErrOut, cfg.Log, cfg.Quiet)
	if err != nil {
		return err
	}

	o.config = cfg
	o.logger = logger
	return nil
}

func versionInfo() string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s (commit: %s)", version, commit)
}
