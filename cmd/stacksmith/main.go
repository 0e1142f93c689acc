package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rahul/stacksmith/internal/llm"
	"github.com/rahul/stacksmith/internal/observability"
	"github.com/rahul/stacksmith/pkg/config"
	"github.com/spf13/cobra"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stacksmith",
	Short: "Generate a frontend technology-selection document from a project form",
	Long: `stacksmith collects project requirements from a form, asks an LLM to
analyze them, optionally researches the web, and writes a markdown
technology-selection document to the output directory.

Run without a subcommand to execute the pipeline (same as "stacksmith run").`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger, err = observability.NewLogger(observability.Options{
			Verbose:    verbose || cfg.Logging.Verbose,
			LLMLogPath: cfg.Logging.LLMLogPath,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
	RunE: runPipeline,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once, non-interactively",
	Long: `Runs collect -> analyze -> (search) -> generate -> save and prints the
location of the saved document.

Form answers come from --form (YAML or JSON) and --set key=value pairs;
--set wins. Empty answers take the field defaults.

Example:
  stacksmith run --set project_type=Web-C端 --set core_features="商品列表"`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated documents in the output directory",
	Args:  cobra.NoArgs,
	RunE:  listDocuments,
}

var showCmd = &cobra.Command{
	Use:   "show <document>",
	Short: "Print a generated document, rendered as markdown on a terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  showDocument,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify credentials, output paths and API connectivity",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent pipeline runs",
	Args:  cobra.NoArgs,
	RunE:  showHistory,
}

var researchCmd = &cobra.Command{
	Use:   "research [framework...]",
	Short: "Research frameworks under several aspects and print the results",
	Long: `Searches "<framework> <aspect>" for every framework and aspect and
prints the results grouped by framework, official sources first.

Example:
  stacksmith research react vue --aspect performance --aspect "ssr support"
  stacksmith research svelte --include benchmark --exclude tutorial`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "Path to the JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&formPath, "form", "", "YAML or JSON file with form answers")
		c.Flags().StringArrayVar(&formSets, "set", nil, "Form answer as key=value (repeatable)")
		c.Flags().StringVar(&defaultsPath, "defaults", "", "YAML file overriding the form defaults")
		c.Flags().BoolVar(&streamDoc, "stream", false, "Echo the document to stdout while it is generated")
	}
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the markdown source without rendering")
	checkCmd.Flags().BoolVar(&checkOffline, "offline", false, "Skip the API connection test")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
	researchCmd.Flags().StringArrayVar(&researchAspects, "aspect", nil, "Aspect to research (repeatable)")
	researchCmd.Flags().StringArrayVar(&researchInclude, "include", nil, "Keep only results mentioning this keyword (repeatable)")
	researchCmd.Flags().StringArrayVar(&researchExclude, "exclude", nil, "Drop results mentioning this keyword (repeatable)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(researchCmd)
}

func main() {
	err := rootCmd.Execute()
	code := exitCode(err)
	if code != exitOK {
		reportError(os.Stderr, err)
	}
	os.Exit(code)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitError
	}
}

// reportError prints err with a remediation hint where one is known.
func reportError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "Interrupted. Nothing was saved unless the save step had completed.")
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := remediation(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

func remediation(err error) string {
	var upstream *llm.UpstreamError
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		return "export DEEPSEEK_API_KEY=<your key>, or enable a provider with an api_key in " + configPath
	case errors.As(err, &upstream):
		return "check the API key, model name and base URL of the configured provider"
	case errors.Is(err, os.ErrPermission):
		return "check that the output directory is writable (app.output_dir or STACKSMITH_OUTPUT_DIR)"
	default:
		return ""
	}
}
