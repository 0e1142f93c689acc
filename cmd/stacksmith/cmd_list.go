package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/rahul/stacksmith/internal/observability"
	"github.com/rahul/stacksmith/internal/search"
	"github.com/rahul/stacksmith/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit    int
	researchAspects []string
	researchInclude []string
	researchExclude []string
	showRaw         bool
)

func listDocuments(cmd *cobra.Command, args []string) error {
	docs := store.NewDocumentStore(cfg.App.OutputDir, cfg.App.DocumentPrefix)
	names, err := docs.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintf(out, "No documents in %s\n", cfg.App.OutputDir)
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

// showDocument prints a saved document, rendered when stdout is a terminal.
func showDocument(cmd *cobra.Command, args []string) error {
	docs := store.NewDocumentStore(cfg.App.OutputDir, cfg.App.DocumentPrefix)
	content, err := docs.Read(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showRaw || !observability.IsTerminal() {
		_, err := fmt.Fprint(out, content)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(observability.TermWidth(), 120)),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", args[0], err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func showHistory(cmd *cobra.Command, args []string) error {
	runs, err := store.NewRunStore(cfg.Memory.Path)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer runs.Close()

	list, err := runs.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRUN\tSTATUS\tPROJECT\tSTEPS\tOUTPUT")
	for _, r := range list {
		status := r.Status
		if len(r.Fallbacks) > 0 {
			status += " (fallback: " + strings.Join(r.Fallbacks, ",") + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.ID,
			status,
			r.ProjectType,
			strings.Join(r.Trace, ">"),
			r.OutputPath,
		)
	}
	return tw.Flush()
}

func runResearch(cmd *cobra.Command, args []string) error {
	client, err := newSearchClient(cfg.Search, logger)
	if err != nil {
		return err
	}

	printResearch(cmd.OutOrStdout(), args, client.SearchTechStack(cmd.Context(), args, researchAspects))
	return nil
}

func printResearch(out io.Writer, frameworks []string, grouped map[string][]search.Result) {
	for _, fw := range frameworks {
		results := search.Filter(grouped[fw], researchInclude, researchExclude)
		results = search.PrioritizeOfficial(results)
		fmt.Fprintf(out, "## %s (%d results)\n", fw, len(results))
		for i, r := range results {
			marker := " "
			if search.IsOfficial(r.URL) {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %d. %s\n     %s\n", marker, i+1, r.Title, r.URL)
		}
		fmt.Fprintln(out)
	}
}
