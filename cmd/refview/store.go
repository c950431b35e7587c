package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wippyai/refgraph/store"
)

var flagIndent bool

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage snapshots in the local database",
	Long:  `Store keeps documents as named snapshots in <data-dir>/` + dbFileName + `.`,
}

var storePutCmd = &cobra.Command{
	Use:   "put <name> <file>",
	Short: "Store a document under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, data, err := readDocument(args[1])
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(st *store.Store) error {
			id, err := st.PutText(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			snap, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !flagIndent {
				fmt.Fprintln(cmd.OutOrStdout(), string(snap.Data))
				return nil
			}
			doc, err := st.Serializer().Codec().Unmarshal(snap.Data)
			if err != nil {
				return err
			}
			out, err := st.Serializer().Codec().Marshal(doc, "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		})
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			snaps, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENTRIES\tCREATED")
			for _, s := range snaps {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Entries, s.Created.Local().Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}

var storeRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	storeGetCmd.Flags().BoolVar(&flagIndent, "indent", false, "pretty-print the document")

	storeCmd.AddCommand(storePutCmd)
	storeCmd.AddCommand(storeGetCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeRmCmd)
}

func withStore(ctx context.Context, fn func(*store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := os.MkdirAll(cfg.GetString(cfgKeyDataDir), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	st, err := store.Open(ctx, dbPath(cfg), serializerOptions(cfg)...)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}
