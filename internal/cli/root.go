package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sah21il/LoopAIProj/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking INGEST_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("INGEST_SERVER"); s != "" {
		return s
	}
	return "http://localhost:5000"
}

// NewRootCmd creates the root cobra command for the ingestctl CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ingestctl",
		Short: "ingestctl — client for the batch ingestion service",
		Long:  "ingestctl submits identifier lists for prioritized batch ingestion and tracks their progress.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Ingestion server URL (or INGEST_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newIngestCmd(),
		newStatusCmd(),
		newListCmd(),
		newHealthCmd(),
	)

	return root
}
