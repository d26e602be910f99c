package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/ingest"
)

var (
	corpusDocs       []string
	corpusUser       string
	corpusTopK       int
	corpusThreshold  float64
	corpusStructural bool
	corpusJSON       bool
	ingestDocID      string
	ingestChunkSize  int
	ingestOverlap    int
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the chunk corpus",
	Long: `Import, search and remove the source chunks that outline generation
and reference tracking draw on.`,
}

var corpusImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import chunks from a YAML or JSON file",
	Long: `Imports chunks from a YAML or JSON file. Use "-" to read standard input.

The file holds either a list of chunks or a mapping with a "chunks" list.
Chunks without an "embedding" are embedded with the configured provider.

  chunks:
    - id: c1
      document_id: handbook
      content: Installation
      metadata:
        header_level: 1
        source: handbook.pdf
        page: 3`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{storageAnnotation: "write"},
	RunE:        runCorpusImport,
}

var corpusIngestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Split documents into chunks and import them",
	Long: `Splits markdown or plain text files into chunks and imports them.

Markdown headings become heading chunks used for outline structure; the
text beneath each heading is cut into overlapping passages. Chunk IDs
take the form <doc>#0000, so re-ingesting a file overwrites chunks at the
same positions. The document ID defaults to the file name without its
extension.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{storageAnnotation: "write"},
	RunE:        runCorpusIngest,
}

var corpusSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus by similarity",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorpusSearch,
}

var corpusRemoveCmd = &cobra.Command{
	Use:         "remove [chunk-id...]",
	Short:       "Remove chunks by ID",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{storageAnnotation: "write"},
	RunE:        runCorpusRemove,
}

var corpusCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored chunks",
	RunE:  runCorpusCount,
}

func init() {
	corpusSearchCmd.Flags().StringSliceVarP(&corpusDocs, "doc", "d", nil, "restrict to document ID (repeatable)")
	corpusSearchCmd.Flags().StringVar(&corpusUser, "owner", "", "restrict to chunks owned by this user ID")
	corpusSearchCmd.Flags().IntVarP(&corpusTopK, "limit", "n", domain.DefaultTopK, "maximum number of results")
	corpusSearchCmd.Flags().Float64Var(&corpusThreshold, "threshold", domain.DefaultSimilarityThreshold,
		"minimum similarity, 0-1")
	corpusSearchCmd.Flags().BoolVar(&corpusStructural, "structural", false, "return heading chunks only")
	corpusSearchCmd.Flags().BoolVar(&corpusJSON, "json", false, "output as JSON")
	corpusIngestCmd.Flags().StringVar(&ingestDocID, "doc", "", "document ID (single file only)")
	corpusIngestCmd.Flags().StringVar(&corpusUser, "owner", "", "owning user ID")
	corpusIngestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", ingest.DefaultChunkSize, "characters per passage")
	corpusIngestCmd.Flags().IntVar(&ingestOverlap, "overlap", ingest.DefaultChunkOverlap,
		"characters shared by adjacent passages")
	corpusCmd.AddCommand(corpusImportCmd)
	corpusCmd.AddCommand(corpusIngestCmd)
	corpusCmd.AddCommand(corpusSearchCmd)
	corpusCmd.AddCommand(corpusRemoveCmd)
	corpusCmd.AddCommand(corpusCountCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusImport(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	records, err := parseChunkRecords(data)
	if err != nil {
		return err
	}

	n, err := corpusService.Import(commandContext(cmd), records)
	if err != nil {
		return fmt.Errorf("import failed after %d chunks: %w", n, err)
	}
	cmd.Printf("Imported %d chunks\n", n)
	return nil
}

// parseChunkRecords decodes a list of chunks, or a mapping with a "chunks"
// key. JSON is accepted as a subset of YAML.
func parseChunkRecords(data []byte) ([]domain.ChunkRecord, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse chunk file: %w", err)
	}
	if len(root.Content) == 0 {
		return []domain.ChunkRecord{}, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var records []domain.ChunkRecord
		if err := doc.Decode(&records); err != nil {
			return nil, fmt.Errorf("parse chunk file: %w", err)
		}
		return records, nil
	case yaml.MappingNode:
		var wrapped struct {
			Chunks []domain.ChunkRecord `yaml:"chunks"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parse chunk file: %w", err)
		}
		if wrapped.Chunks == nil {
			return nil, errors.New(`parse chunk file: expected a list or a "chunks" key`)
		}
		return wrapped.Chunks, nil
	default:
		return nil, errors.New(`parse chunk file: expected a list or a "chunks" key`)
	}
}

func runCorpusIngest(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}
	if ingestDocID != "" && len(args) > 1 {
		return errors.New("--doc can only be used with a single file")
	}

	splitter := ingest.New(ingest.WithChunkSize(ingestChunkSize), ingest.WithOverlap(ingestOverlap))
	var records []domain.ChunkRecord
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		name := filepath.Base(path)
		docID := ingestDocID
		if docID == "" {
			docID = strings.TrimSuffix(name, filepath.Ext(name))
		}

		chunks := splitter.Split(ingest.Document{
			ID:      docID,
			UserID:  corpusUser,
			Source:  name,
			Content: string(data),
		})
		cmd.Printf("%s: %d chunks\n", name, len(chunks))
		records = append(records, chunks...)
	}

	n, err := corpusService.Import(commandContext(cmd), records)
	if err != nil {
		return fmt.Errorf("import failed after %d chunks: %w", n, err)
	}
	cmd.Printf("Imported %d chunks\n", n)
	return nil
}

func runCorpusSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	var (
		chunks []domain.Chunk
		err    error
	)
	if corpusStructural {
		chunks, err = retrievalService.SearchStructural(commandContext(cmd), args[0], corpusDocs, corpusTopK)
	} else {
		chunks, err = retrievalService.Search(commandContext(cmd), domain.RetrievalQuery{
			QueryText:           args[0],
			UserID:              corpusUser,
			DocumentIDs:         corpusDocs,
			TopK:                corpusTopK,
			SimilarityThreshold: corpusThreshold,
		})
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if corpusJSON {
		return printJSON(cmd, chunks)
	}
	return outputChunks(cmd, chunks)
}

func outputChunks(cmd *cobra.Command, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.ID, c.Similarity)
		cmd.Printf("      Document: %s\n", c.DocumentID)
		if c.Metadata.Source != "" {
			cmd.Printf("      Source: %s\n", c.Metadata.Source)
		}
		if c.Metadata.HeaderLevel != nil {
			cmd.Printf("      Heading (level %d): %s\n", *c.Metadata.HeaderLevel, c.Content)
		} else {
			cmd.Printf("      %s\n", truncate(c.Content, 120))
		}
		cmd.Println()
	}
	return nil
}

func runCorpusRemove(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}
	if err := corpusService.Remove(commandContext(cmd), args); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed %d chunks\n", len(args))
	return nil
}

func runCorpusCount(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}
	n, err := corpusService.Count(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}
	cmd.Printf("%d chunks\n", n)
	return nil
}
