package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prism/internal/core/domain"
)

var (
	referenceType string
	referenceJSON bool
)

var referenceCmd = &cobra.Command{
	Use:     "reference",
	Aliases: []string{"ref"},
	Short:   "Manage draft references",
	Long:    `Attach, list and remove references from draft paragraphs to source chunks.`,
}

var referenceAttachCmd = &cobra.Command{
	Use:   "attach [draft-id] [chunk-id] [paragraph]",
	Short: "Attach a chunk to a draft paragraph",
	Args:  cobra.ExactArgs(3),
	RunE:  runReferenceAttach,
}

var referenceListCmd = &cobra.Command{
	Use:   "list [draft-id]",
	Short: "List a draft's references",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferenceList,
}

var referenceRemoveCmd = &cobra.Command{
	Use:   "remove [draft-id] [reference-id]",
	Short: "Remove a reference",
	Args:  cobra.ExactArgs(2),
	RunE:  runReferenceRemove,
}

func init() {
	referenceAttachCmd.Flags().StringVarP(&referenceType, "type", "t", string(domain.ReferenceCitation),
		"reference type: citation, summary or quote")
	referenceAttachCmd.Flags().BoolVar(&referenceJSON, "json", false, "output as JSON")
	referenceListCmd.Flags().BoolVar(&referenceJSON, "json", false, "output as JSON")
	referenceCmd.AddCommand(referenceAttachCmd)
	referenceCmd.AddCommand(referenceListCmd)
	referenceCmd.AddCommand(referenceRemoveCmd)
	rootCmd.AddCommand(referenceCmd)
}

func runReferenceAttach(cmd *cobra.Command, args []string) error {
	if referenceService == nil {
		return errors.New("reference service not configured")
	}

	paragraph, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("paragraph must be an integer, got %q", args[2])
	}

	ref, err := referenceService.Attach(commandContext(cmd), domain.AttachRequest{
		DraftID:        args[0],
		ChunkID:        args[1],
		ParagraphIndex: paragraph,
		Type:           domain.ReferenceType(referenceType),
	})
	if err != nil {
		return fmt.Errorf("attach failed: %w", err)
	}

	if referenceJSON {
		return printJSON(cmd, ref)
	}
	cmd.Printf("Attached %s (%s) to paragraph %d of %s\n", ref.ID, ref.Type, ref.ParagraphIndex, ref.DraftID)
	return nil
}

func runReferenceList(cmd *cobra.Command, args []string) error {
	if referenceService == nil {
		return errors.New("reference service not configured")
	}

	refs, err := referenceService.List(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if referenceJSON {
		return printJSON(cmd, refs)
	}

	if len(refs) == 0 {
		cmd.Println("No references found.")
		return nil
	}

	for i := range refs {
		r := &refs[i]
		cmd.Printf("  [%d] %s  paragraph %d  %s  chunk %s\n", i+1, r.ID, r.ParagraphIndex, r.Type, r.ChunkID)
		if r.ChunkSource != nil {
			cmd.Printf("      Source: %s\n", *r.ChunkSource)
		}
		cmd.Printf("      %s\n", truncate(r.ChunkContent, 120))
	}
	return nil
}

func runReferenceRemove(cmd *cobra.Command, args []string) error {
	if referenceService == nil {
		return errors.New("reference service not configured")
	}

	if err := referenceService.Remove(commandContext(cmd), args[0], args[1]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed %s\n", args[1])
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
