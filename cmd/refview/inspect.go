package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print every table entry with its back-references",
	Long: `Inspect prints each entry of a document: its position, kind, type tag and
cells. Back-references show as "-> #N" and each entry lists the positions
that refer to it. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := readDocument(args[0])
		if err != nil {
			return err
		}
		p := newPalette(styled())
		fmt.Fprintln(cmd.OutOrStdout(), p.title.Render("refview")+" "+args[0])
		fmt.Fprint(cmd.OutOrStdout(), p.document(doc))
		return nil
	},
}
