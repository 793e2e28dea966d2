// Package cli provides the cobra command tree for sercha-rag.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services holds everything the commands call into.
type Services struct {
	Query      driving.QueryService
	Documents  driving.DocumentService
	Evaluation driving.EvaluationService
	Settings   driving.SettingsService
	Pipeline   driving.Pipeline

	// Validator pings providers when settings change. Optional.
	Validator driven.ProviderValidator

	// Metrics and Checks back the HTTP server. Optional.
	Metrics httpapi.Metrics
	Checks  map[string]httpapi.Check

	// Warnings from bootstrapping, shown before commands that need providers.
	Warnings []string
}

// Bootstrap builds the services once flags are parsed. The returned
// cleanup runs after the command finishes.
type Bootstrap func(ctx context.Context) (*Services, func(), error)

var (
	queryService      driving.QueryService
	documentService   driving.DocumentService
	evaluationService driving.EvaluationService
	settingsService   driving.SettingsService
	answerPipeline    driving.Pipeline
	providerValidator driven.ProviderValidator
	httpMetrics       httpapi.Metrics
	readyChecks       map[string]httpapi.Check
	startupWarnings   []string
)

var (
	bootstrap Bootstrap
	cleanup   func()
	verbose   bool
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Grounded question answering over your documents",
	Long: `sercha-rag indexes documents and answers questions about them with
numbered citations that point back to the passages used.

Configure providers with 'sercha-rag settings', add documents with
'sercha-rag upload', then ask with 'sercha-rag ask'.`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices wires services directly, bypassing Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	queryService = s.Query
	documentService = s.Documents
	evaluationService = s.Evaluation
	settingsService = s.Settings
	answerPipeline = s.Pipeline
	providerValidator = s.Validator
	httpMetrics = s.Metrics
	readyChecks = s.Checks
	startupWarnings = s.Warnings
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	services, done, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	if services == nil {
		return errors.New("bootstrap returned no services")
	}
	SetServices(services)
	cleanup = done
	return nil
}

// printWarnings shows bootstrap warnings on stderr.
func printWarnings(cmd *cobra.Command) {
	for _, w := range startupWarnings {
		cmd.PrintErrf("warning: %s\n", w)
	}
}
