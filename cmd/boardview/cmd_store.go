package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/store"
)

func (a *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage named document snapshots",
		Long: `Keep named snapshots of board documents in a SQLite database.

Available subcommands:
  put  - store a document file under a name
  get  - print or write a stored document
  list - list stored snapshots
  rm   - delete a snapshot`,
	}

	withStore := func(fn func(cmd *cobra.Command, s *store.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()
			return fn(cmd, s, args)
		}
	}

	put := &cobra.Command{
		Use:   "put <name> <document.json>",
		Short: "Store a document under a name",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			doc, err := board.LoadFile(args[1])
			if err != nil {
				return err
			}
			return s.Put(cmd.Context(), args[0], doc)
		}),
	}

	var output string
	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored document, or write it with -o",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			doc, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output != "" {
				return board.SaveFile(output, doc)
			}
			return board.Encode(cmd.OutOrStdout(), doc)
		}),
	}
	get.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			entries, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCOMPONENTS\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Name, e.Components, e.Updated.Format(time.RFC3339))
			}
			return tw.Flush()
		}),
	}

	rm := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			return s.Delete(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(put, get, list, rm)
	return cmd
}
