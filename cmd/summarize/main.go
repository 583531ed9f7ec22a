// Command summarize runs the extraction and summarization pipeline on local
// files without the HTTP server or a database.
//
//	go run ./cmd/summarize extract report.pdf
//	go run ./cmd/summarize run --provider local notes.txt
//	OBJECT_STORE=local go run ./cmd/summarize archived <storage-key>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docsummary-backend/internal/bootstrap"
	"docsummary-backend/internal/extract"
	"docsummary-backend/internal/shared/config"
	"docsummary-backend/internal/shared/storage/object"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "summarize",
		Short:         "Extract and summarize PDF, DOCX and TXT files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newExtractCmd(), newRunCmd(), newArchivedCmd())
	return root
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := extractFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		provider      string
		model         string
		promptVersion string
	)
	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Print a summary for each file using the configured provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if provider != "" {
				cfg.LLM.Provider = strings.ToLower(provider)
			}
			if model != "" {
				cfg.LLM.Model = model
			}
			if promptVersion != "" {
				cfg.LLM.PromptVersion = promptVersion
			}
			summarizer, used, err := bootstrap.BuildSummarizer(cfg)
			if err != nil {
				return err
			}

			for _, path := range args {
				text, err := extractFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				summary := "(no text)"
				if strings.TrimSpace(text) != "" {
					ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LLM.Timeout)
					summary, err = summarizer.Summarize(ctx, text)
					cancel()
					if err != nil {
						return fmt.Errorf("summarize %s: %w", path, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "== %s [%s]\n%s\n", filepath.Base(path), used, summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "summarizer provider (openai or local)")
	cmd.Flags().StringVar(&model, "model", "", "model name for the openai provider")
	cmd.Flags().StringVar(&promptVersion, "prompt-version", "", "prompt template version")
	return cmd
}

func newArchivedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archived <storage-key>",
		Short: "Print the text of an upload kept in the configured object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := bootstrap.BuildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("OBJECT_STORE is not configured")
			}

			key := args[0]
			rc, err := store.Open(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("open %s: %w", key, err)
			}
			defer rc.Close()
			content, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}
			text, err := extract.ExtractText(cmd.Context(), object.FileNameFromKey(key), content)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func extractFile(ctx context.Context, path string) (string, error) {
	if _, err := extract.Format(path); err != nil {
		return "", fmt.Errorf("%w (supported: %s)", err, strings.Join(extract.SupportedExtensions(), ", "))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return extract.ExtractText(ctx, filepath.Base(path), content)
}
