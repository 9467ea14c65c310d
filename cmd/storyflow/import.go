package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/internal/importer"
)

var flagImportText string

var importCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Extract stories from documents into the backlog",
	Long: `Import reads requirement documents (.docx or plain text), asks the
configured model to break them into story drafts, and admits the batch
into the backlog. A file that cannot be read aborts the submission; an
extraction failure imports nothing.

Example:
  storyflow import requirements.docx notes.txt
  storyflow import --text "As a player I want to pause the game"`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportText, "text", "", "import from inline text instead of files")
}

func runImport(cmd *cobra.Command, args []string) error {
	if flagImportText == "" && len(args) == 0 {
		return fmt.Errorf("nothing to import: pass files or --text")
	}

	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.close()

	pipeline, err := newPipeline(sess.store)
	if err != nil {
		return err
	}

	if flagImportText != "" {
		imported, err := pipeline.ImportText(cmd.Context(), flagImportText)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d stories\n", len(imported))
		return nil
	}

	files := make([]importer.File, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, importer.File{Name: filepath.Base(path), Data: data})
	}

	imported, err := pipeline.ImportFiles(cmd.Context(), files)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d stories from %d file(s)\n", len(imported), len(files))
	return nil
}
