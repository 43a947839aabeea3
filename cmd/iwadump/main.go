package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/anirudhraja/iwalite"
	"github.com/anirudhraja/iwalite/wire"
)

const (
	debugFlag     = "debug"
	cacheSizeFlag = "cache-size"
	strictFlag    = "strict-wire"
)

var command = &cobra.Command{
	Use:   "iwadump",
	Short: "IWA document inspector",
	Long: `iwadump lists the members and archived objects of an IWA document and
dumps single objects either field by field or decoded with a .proto schema.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	command.SetOut(os.Stdout)

	flags := command.PersistentFlags()
	flags.Bool(debugFlag, false, "Log decoder diagnostics")
	flags.Int(cacheSizeFlag, iwalite.DefaultCacheSize, "Number of decompressed members kept in memory")
	flags.Bool(strictFlag, false, "Stop scanning a message at a field whose wire type changes")

	command.AddCommand(
		membersCmd,
		objectsCmd,
		dumpCmd,
	)
}

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the CLI logger: development output with --debug, warnings
// only otherwise.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	debug, _ := cmd.Flags().GetBool(debugFlag)
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

// openDocument opens path with the options derived from the global flags
func openDocument(cmd *cobra.Command, path string, opts ...iwalite.Option) (*iwalite.Document, *zap.Logger, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	cacheSize, _ := cmd.Flags().GetInt(cacheSizeFlag)
	strict, _ := cmd.Flags().GetBool(strictFlag)

	opts = append([]iwalite.Option{
		iwalite.WithCacheSize(cacheSize),
		iwalite.WithConfig(wire.Config{
			Logger:               log,
			StrictWireTypeOnScan: strict,
		}),
	}, opts...)

	doc, err := iwalite.Open(path, opts...)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return doc, log, nil
}
