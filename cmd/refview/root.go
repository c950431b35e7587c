package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/refgraph"
	"github.com/wippyai/refgraph/table"
)

var (
	flagConfig  string
	flagVerbose bool
	flagPlain   bool

	cfg    *viper.Viper
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "refview",
	Short: "Inspect and store refgraph documents",
	Long: `refview works with documents written by refgraph: flat JSON tables where
entry 0 is the root and shared or cyclic values appear as back-references.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
		}

		v, err := loadConfig(flagConfig)
		if err != nil {
			return err
		}
		for key, flag := range map[string]string{
			cfgKeyPrefix:      "prefix",
			cfgKeyReviveTypes: "revive-types",
			cfgKeyPathLookup:  "path-lookup",
			cfgKeyDataDir:     "data-dir",
		} {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
		cfg = v

		logger.Debug("loaded config",
			zap.String("file", v.ConfigFileUsed()),
			zap.String("prefix", v.GetString(cfgKeyPrefix)),
			zap.Bool("revive_types", v.GetBool(cfgKeyReviveTypes)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: ./refview.yaml)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")
	pf.BoolVar(&flagPlain, "plain", false, "disable styled output")
	pf.String("prefix", table.DefaultPrefix, "reserved key prefix")
	pf.Bool("revive-types", false, "decode tagged records into registered types")
	pf.Bool("path-lookup", false, "resolve dotted constructor names against the default scope")
	pf.String("data-dir", ".", "directory holding "+dbFileName)

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(storeCmd)
}

func newSerializer() *refgraph.Serializer {
	return refgraph.New(serializerOptions(cfg)...)
}

// readDocument parses the document in path, or stdin when path is "-".
func readDocument(path string) (*table.Document, []byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := table.NewCodec(cfg.GetString(cfgKeyPrefix)).Unmarshal(data)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// styled reports whether output goes to a terminal and styling is wanted.
func styled() bool {
	return !flagPlain && term.IsTerminal(int(os.Stdout.Fd()))
}
