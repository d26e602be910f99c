package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prism/internal/core/domain"
)

var (
	outlineDocs     []string
	outlineMaxDepth int
	outlineJSON     bool
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Generate document outlines",
}

var outlineGenerateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate an outline for a topic",
	Long: `Generates a heading outline for the topic.

When --doc is given, headings and passages from those documents are
retrieved and used as context. Without a configured LLM a default
outline is returned.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutlineGenerate,
}

var outlineTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List preset outline templates",
	RunE:  runOutlineTemplates,
}

func init() {
	outlineGenerateCmd.Flags().StringSliceVarP(&outlineDocs, "doc", "d", nil, "document ID to draw context from (repeatable)")
	outlineGenerateCmd.Flags().IntVar(&outlineMaxDepth, "max-depth", 3, "deepest heading level, 1-5")
	outlineGenerateCmd.Flags().BoolVar(&outlineJSON, "json", false, "output as JSON")
	outlineTemplatesCmd.Flags().BoolVar(&outlineJSON, "json", false, "output as JSON")
	outlineCmd.AddCommand(outlineGenerateCmd)
	outlineCmd.AddCommand(outlineTemplatesCmd)
	rootCmd.AddCommand(outlineCmd)
}

func runOutlineGenerate(cmd *cobra.Command, args []string) error {
	if outlineService == nil {
		return errors.New("outline service not configured")
	}

	result, err := outlineService.Generate(commandContext(cmd), domain.OutlineRequest{
		Topic:       args[0],
		DocumentIDs: outlineDocs,
		MaxDepth:    outlineMaxDepth,
	})
	if err != nil {
		return fmt.Errorf("outline generation failed: %w", err)
	}

	if outlineJSON {
		return printJSON(cmd, result)
	}

	cmd.Printf("Outline: %s\n", result.Topic)
	if result.SourcesUsed > 0 {
		cmd.Printf("Sources used: %d\n", result.SourcesUsed)
	}
	cmd.Println()
	printOutline(cmd, result.Outline)
	return nil
}

func runOutlineTemplates(cmd *cobra.Command, _ []string) error {
	if outlineService == nil {
		return errors.New("outline service not configured")
	}

	templates := outlineService.Templates()
	if outlineJSON {
		return printJSON(cmd, templates)
	}

	for i, t := range templates {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("%s (%s)\n", t.Name, t.ID)
		if t.Description != "" {
			cmd.Printf("  %s\n", t.Description)
		}
		printOutline(cmd, t.Outline)
	}
	return nil
}

// printOutline indents each heading two spaces per level.
func printOutline(cmd *cobra.Command, items []domain.OutlineItem) {
	for _, item := range items {
		indent := strings.Repeat("  ", max(item.Depth, 1))
		cmd.Printf("%s%s\n", indent, item.Title)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
