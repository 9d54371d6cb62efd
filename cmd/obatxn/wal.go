package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/obatxn/internal/storage/engine"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/txn"
)

func newWALCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wal [command]",
		Short: "write-ahead log commands",
	}
	cmd.AddCommand(newWALDumpCmd())
	return cmd
}

type walDumpOptions struct {
	file    string
	from    uint64
	summary bool
}

func newWALDumpCmd() *cobra.Command {
	opts := &walDumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "print every edit of a log file",
		Long: `
  Decodes the records of a write-ahead log file and prints one line per edit:
  transaction markers and data changes with their index maintenance.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWALDump(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "path to the log file")
	cmd.Flags().Uint64Var(&opts.from, "from", 0, "first LSN to print")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print counts instead of edits")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runWALDump(out io.Writer, opts *walDumpOptions) error {
	counts := make(map[string]int)

	err := engine.Replay(opts.file, opts.from, func(edit txn.LogEdit) error {
		line := describeEdit(edit)
		counts[strings.Fields(line)[1]]++
		if !opts.summary {
			fmt.Fprintln(out, line)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "dump WAL")
	}

	if opts.summary {
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(out, "%-8s %d\n", k, counts[k])
		}
	}
	return nil
}

// describeEdit renders an edit as "<lsn> <kind> <details>".
func describeEdit(edit txn.LogEdit) string {
	switch e := edit.(type) {
	case *txn.TxnMarker:
		if e.Type == txn.MarkerBegin {
			return fmt.Sprintf("%d %s", e.Position(), e.Type)
		}
		return fmt.Sprintf("%d %s start=%d", e.Position(), e.Type, e.TxnStart)

	case *txn.DataChange:
		var b strings.Builder
		fmt.Fprintf(&b, "%d %s %s/%d", e.Position(), e.Op, e.Partition, e.EntryID)
		if e.Entry != nil {
			fmt.Fprintf(&b, " dn=%q", e.Entry.DN)
		}
		for _, m := range e.Mods {
			fmt.Fprintf(&b, " %s:%s", m.Type, m.Attribute)
		}
		for _, ic := range e.IndexChanges {
			op := "+"
			if ic.Op == txn.IndexDelete {
				op = "-"
			}
			fmt.Fprintf(&b, " %s%s=%q", op, ic.Attribute, ic.Entry.Value)
		}
		return b.String()

	default:
		return fmt.Sprintf("%d %s", edit.Position(), edit.Kind())
	}
}
