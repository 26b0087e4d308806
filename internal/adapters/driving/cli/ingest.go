package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/normalisers"
)

var (
	ingestFile string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [url]",
	Short: "Fetch a web page and index it",
	Long: `Fetches the page at url, extracts its text, splits it into overlapping
chunks and upserts their embeddings into the configured index. The index is
created on first use.

Use --file to index a local HTML or text file instead. The url argument, if
given, is then recorded as the source of the file's chunks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "index a local HTML or text file")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	source := ""
	if len(args) > 0 {
		source = args[0]
	}
	if source == "" && ingestFile == "" {
		return errors.New("a url or --file is required")
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	var result *domain.IngestResult
	if ingestFile != "" {
		doc, err := readDocument(ingestFile, source)
		if err != nil {
			return err
		}
		result, err = rt.Pipeline.IngestDocument(cmd.Context(), doc)
		if err != nil {
			return err
		}
	} else {
		result, err = rt.Pipeline.Ingest(cmd.Context(), source)
		if err != nil {
			return err
		}
	}

	if ingestJSON {
		return outputJSON(cmd, result)
	}

	cmd.Printf("Ingested %s\n", result.URL)
	if result.Title != "" {
		cmd.Printf("  Title:  %s\n", result.Title)
	}
	cmd.Printf("  Chunks: %d (%d upserted)\n", result.Chunks, result.Upserted)
	cmd.Printf("  Index:  %s\n", result.Index)
	cmd.Printf("  Took:   %s\n", result.Elapsed.Round(time.Millisecond))
	return nil
}

// readDocument loads a local file as a Document. Files ending in .htm, .html
// or .xhtml are stripped of markup; anything else is read as plain text.
func readDocument(path, source string) (*domain.Document, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewStageError(domain.StageFetch, domain.ErrFetch, err)
	}

	if source == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		source = "file://" + filepath.ToSlash(abs)
	}

	doc, err := normalisers.Default().Normalise(source, body, normalisers.MIMEForPath(path))
	if err != nil {
		return nil, domain.NewStageError(domain.StageFetch, domain.ErrFetch, fmt.Errorf("normalise %s: %w", path, err))
	}
	return doc, nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
