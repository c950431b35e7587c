package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Decode a document and report its shape",
	Long: `Check parses and fully decodes a document with the configured settings and
reports entry counts, type tags, shared and cyclic positions. It fails on the
first error, such as an unknown constructor or a malformed cell.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := readDocument(args[0])
		if err != nil {
			return err
		}
		if _, err := newSerializer().DecodeDocument(doc); err != nil {
			return err
		}

		st := analyze(doc)
		logger.Debug("checked document",
			zap.String("file", args[0]),
			zap.Int("entries", st.Entries),
			zap.Int("cyclic", len(st.Cyclic)))
		writeReport(cmd.OutOrStdout(), st)
		return nil
	},
}

func writeReport(w io.Writer, st docStats) {
	fmt.Fprintf(w, "ok: %d entries (%d records, %d sequences)\n", st.Entries, st.Records, st.Sequences)
	if st.Builders > 0 || st.Undefined > 0 {
		fmt.Fprintf(w, "atoms: %d builders, %d undefined\n", st.Builders, st.Undefined)
	}

	names := make([]string, 0, len(st.Types))
	for name := range st.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "type %s: %d\n", name, st.Types[name])
	}

	if len(st.Shared) > 0 {
		fmt.Fprintf(w, "shared: %s\n", joinPositions(st.Shared))
	}
	if len(st.Cyclic) > 0 {
		fmt.Fprintf(w, "cyclic: %s\n", joinPositions(st.Cyclic))
	}
}
