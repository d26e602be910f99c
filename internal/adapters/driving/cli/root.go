// Package cli implements the prism command line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/prism/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prism/internal/core/ports/driving"
	"github.com/custodia-labs/prism/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by the bootstrap hook.
var (
	outlineService   driving.OutlineService
	referenceService driving.ReferenceService
	retrievalService driving.RetrievalService
	corpusService    driving.CorpusService
	settingsService  driving.SettingsService
	promptStore      *file.PromptStore
)

// Persistent flags.
var (
	verbose   bool
	configDir string
)

// Command annotations read by the bootstrap hook.
const (
	// skipBootstrap marks commands that run without services.
	skipBootstrap = "skip-bootstrap"

	// storageAnnotation overrides the storage a command and its
	// subcommands open. Values are "none" and "write".
	storageAnnotation = "storage"
)

// StorageAccess tells the bootstrap hook which stores a command needs.
type StorageAccess int

const (
	// StorageRead opens the corpus read-only, so several processes can
	// share it, and opens the reference store.
	StorageRead StorageAccess = iota

	// StorageNone opens no stores. Settings commands use it so a broken
	// storage configuration can still be repaired.
	StorageNone

	// StorageWrite opens the corpus for writing.
	StorageWrite
)

func (a StorageAccess) String() string {
	switch a {
	case StorageNone:
		return "none"
	case StorageWrite:
		return "write"
	default:
		return "read"
	}
}

// storageAccess returns the access declared by cmd or its nearest
// annotated parent.
func storageAccess(cmd *cobra.Command) StorageAccess {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Annotations[storageAnnotation] {
		case "none":
			return StorageNone
		case "write":
			return StorageWrite
		}
	}
	return StorageRead
}

// Services holds the driving ports the commands run against.
type Services struct {
	Outline    driving.OutlineService
	References driving.ReferenceService
	Retrieval  driving.RetrievalService
	Corpus     driving.CorpusService
	Settings   driving.SettingsService

	// Prompts is watched for edits while the MCP server runs. May be nil.
	Prompts *file.PromptStore
}

// Options carries the flag values the bootstrap hook needs.
type Options struct {
	ConfigDir string
	Storage   StorageAccess
}

// Bootstrap builds the services once flags are parsed.
// The returned func releases them and is called after the command finishes.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap Bootstrap
	release   func()
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Outline generation and reference tracking for writing assistants",
	Long: `Prism generates structured document outlines from a corpus of source
chunks and tracks references from draft paragraphs back to those chunks.

It runs as a command line tool or as an MCP server for AI assistants.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.prism)")
}

// SetBootstrap registers the hook that builds services before each command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// SetServices installs services directly, bypassing the bootstrap hook.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	outlineService = s.Outline
	referenceService = s.References
	retrievalService = s.Retrieval
	corpusService = s.Corpus
	settingsService = s.Settings
	promptStore = s.Prompts
}

// Execute runs the root command and releases any services it built.
func Execute() error {
	defer func() {
		if release != nil {
			release()
			release = nil
		}
	}()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svcs, cleanup, err := bootstrap(ctx, Options{
		ConfigDir: configDir,
		Storage:   storageAccess(cmd),
	})
	if err != nil {
		return err
	}
	if svcs == nil {
		return errors.New("bootstrap returned no services")
	}
	SetServices(svcs)
	release = cleanup
	return nil
}
