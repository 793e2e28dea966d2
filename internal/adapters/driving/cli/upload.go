package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/watch"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	uploadText  string
	uploadTitle string
	uploadWatch bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Add documents to the index",
	Long: `Extracts text from each file, splits it into overlapping chunks,
embeds them and stores them in the vector index.

Supported formats: plain text, markdown, HTML, PDF, DOCX.
Uploading a file with the same name replaces the earlier document.

Examples:
  sercha-rag upload handbook.pdf notes.md
  sercha-rag upload --text "Paris is the capital of France." --title Geography
  sercha-rag upload --watch ./docs`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadText, "text", "t", "", "upload raw text instead of files")
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "document title")
	uploadCmd.Flags().BoolVarP(&uploadWatch, "watch", "w", false, "upload a directory and follow changes")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	printWarnings(cmd)

	switch {
	case uploadWatch:
		if len(args) != 1 {
			return errors.New("--watch takes exactly one directory")
		}
		return runUploadWatch(cmd, args[0])
	case uploadText != "":
		if len(args) > 0 {
			return errors.New("use either --text or files, not both")
		}
		raw := &domain.RawDocument{
			MIMEType: "text/plain",
			Title:    uploadTitle,
			Content:  []byte(uploadText),
		}
		return uploadOne(cmd, domain.TextInputSource, raw)
	case len(args) == 0:
		return errors.New("either a file or --text must be provided")
	}

	var failed int
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		raw := &domain.RawDocument{
			Name:    filepath.Base(path),
			Title:   uploadTitle,
			Content: content,
		}
		if err := uploadOne(cmd, path, raw); err != nil {
			cmd.PrintErrf("%v\n", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

func uploadOne(cmd *cobra.Command, label string, raw *domain.RawDocument) error {
	result, err := documentService.Upload(cmd.Context(), raw)
	if err != nil {
		return fmt.Errorf("%s: upload failed: %w", label, err)
	}
	cmd.Printf("%s: %s (id %s)\n", label, result.Message, result.DocumentID)
	return nil
}

func runUploadWatch(cmd *cobra.Command, dir string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(dir, documentService)
	initial, err := w.Sync(ctx)
	if err != nil {
		return err
	}
	for _, ev := range initial {
		printWatchEvent(cmd, ev)
	}

	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	for ev := range events {
		printWatchEvent(cmd, ev)
	}
	return nil
}

func printWatchEvent(cmd *cobra.Command, ev watch.Event) {
	name := filepath.Base(ev.Path)
	switch {
	case ev.Err != nil:
		cmd.PrintErrf("%s %s failed: %v\n", ev.Action, name, ev.Err)
	case ev.Action == watch.ActionUpload && ev.Result != nil:
		cmd.Printf("uploaded %s: %d chunks\n", name, ev.Result.ChunksCreated)
	case ev.Action == watch.ActionDelete:
		cmd.Printf("deleted %s\n", name)
	}
}
