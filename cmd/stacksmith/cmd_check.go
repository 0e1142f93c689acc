package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rahul/stacksmith/internal/llm"
	"github.com/rahul/stacksmith/internal/store"
	"github.com/rahul/stacksmith/pkg/config"
	"github.com/spf13/cobra"
)

const placeholderAPIKey = "your_deepseek_api_key_here"

var checkOffline bool

// errChecksFailed is returned after the table is printed so the exit code
// reflects the result without repeating the details.
var errChecksFailed = errors.New("environment check failed")

type checkResult struct {
	Name   string
	OK     bool
	Detail string
}

type completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

func runCheck(cmd *cobra.Command, args []string) error {
	var ping completer
	if !checkOffline && cfg.Validate() == nil {
		name, provider := cfg.GetDefaultProvider()
		client, err := llm.NewFromProvider(name, provider, logger)
		if err != nil {
			return err
		}
		ping = client
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	results := runChecks(ctx, cfg, ping)
	if !printChecks(cmd.OutOrStdout(), results) {
		return errChecksFailed
	}
	return nil
}

// runChecks verifies credentials and local paths, then pings the model when
// ping is non-nil.
func runChecks(ctx context.Context, cfg *config.Config, ping completer) []checkResult {
	results := []checkResult{checkCredentials(cfg)}
	results = append(results, checkOutputDir(cfg.App.OutputDir))
	if cfg.App.PromptsDir != "" {
		results = append(results, checkDir("prompts directory", cfg.App.PromptsDir))
	}
	if cfg.Memory.Path != "" {
		results = append(results, checkHistory(ctx, cfg.Memory.Path))
	}

	if ping == nil {
		return append(results, checkResult{Name: "API connection", OK: true, Detail: "skipped"})
	}
	if !results[0].OK {
		return append(results, checkResult{Name: "API connection", Detail: "skipped: no usable API key"})
	}
	if _, err := ping.Complete(ctx, "", "Reply with OK."); err != nil {
		return append(results, checkResult{Name: "API connection", Detail: err.Error()})
	}
	return append(results, checkResult{Name: "API connection", OK: true, Detail: "ok"})
}

func checkCredentials(cfg *config.Config) checkResult {
	r := checkResult{Name: "API key"}
	if err := cfg.Validate(); err != nil {
		r.Detail = err.Error()
		return r
	}
	name, p := cfg.GetDefaultProvider()
	if p.APIKey == placeholderAPIKey {
		r.Detail = "replace the placeholder key with a real one"
		return r
	}
	r.OK = true
	r.Detail = fmt.Sprintf("%s, model %s, key %s", name, p.Model, maskKey(p.APIKey))
	return r
}

func checkOutputDir(dir string) checkResult {
	r := checkResult{Name: "output directory"}
	if err := os.MkdirAll(dir, 0755); err != nil {
		r.Detail = err.Error()
		return r
	}
	f, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		r.Detail = "not writable: " + err.Error()
		return r
	}
	f.Close()
	os.Remove(f.Name())
	r.OK = true
	r.Detail = dir
	return r
}

func checkDir(name, dir string) checkResult {
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		return checkResult{Name: name, Detail: err.Error()}
	case !info.IsDir():
		return checkResult{Name: name, Detail: dir + " is not a directory"}
	}
	return checkResult{Name: name, OK: true, Detail: dir}
}

func checkHistory(ctx context.Context, path string) checkResult {
	r := checkResult{Name: "run history"}
	runs, err := store.NewRunStore(path)
	if err != nil {
		r.Detail = err.Error()
		return r
	}
	defer runs.Close()
	if _, err := runs.ListRuns(ctx, 1); err != nil {
		r.Detail = err.Error()
		return r
	}
	r.OK = true
	r.Detail = path
	return r
}

// printChecks writes the results as a table and reports whether all passed.
func printChecks(w io.Writer, results []checkResult) bool {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tDETAIL")
	ok := true
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "FAIL"
			ok = false
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, status, r.Detail)
	}
	tw.Flush()
	return ok
}

func maskKey(key string) string {
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
