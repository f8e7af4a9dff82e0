package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autoval/autoval/pkg/reftable"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Manage reference tables",
	}
	cmd.AddCommand(newTablesImportCmd(), newTablesListCmd())
	return cmd
}

func newTablesImportCmd() *cobra.Command {
	var (
		from string
		db   dbFlags
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a reference-table YAML file into the database",
		Long: `Upserts every row of a reference-table YAML document into the
reference_values table. Without --from the bundled seed tables are imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTablesImport(cmd.Context(), from, db, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Reference tables YAML (default: bundled seed)")
	db.register(cmd, "sqlite")

	return cmd
}

func runTablesImport(ctx context.Context, from string, db dbFlags, out io.Writer) error {
	var (
		src *reftable.MemorySource
		err error
	)
	if from == "" {
		src, err = reftable.Seed()
	} else {
		src, err = reftable.LoadFile(from)
	}
	if err != nil {
		return err
	}

	conn, err := db.open()
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := reftable.NewSQLSource(conn).Upsert(ctx, src.Entries())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d reference values (version %s)\n", n, firstNonEmpty(src.Version(), "unversioned"))
	return nil
}

func newTablesListCmd() *cobra.Command {
	var (
		table string
		from  string
		db    dbFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the rows of one reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTablesList(cmd.Context(), reftable.Table(table), from, db, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Table name, e.g. regional_demand (required)")
	cmd.Flags().StringVar(&from, "from", "", "Reference tables YAML to read instead of a database")
	db.register(cmd, "")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runTablesList(ctx context.Context, table reftable.Table, from string, db dbFlags, out io.Writer) error {
	if !table.Valid() {
		return fmt.Errorf("unknown table %q (known: %v)", table, reftable.AllTables)
	}

	var entries []reftable.Entry
	if db.driver != "" {
		conn, err := db.open()
		if err != nil {
			return err
		}
		defer conn.Close()
		entries, err = reftable.NewSQLSource(conn).List(ctx, table)
		if err != nil {
			return err
		}
	} else {
		var (
			src *reftable.MemorySource
			err error
		)
		if from == "" {
			src, err = reftable.Seed()
		} else {
			src, err = reftable.LoadFile(from)
		}
		if err != nil {
			return err
		}
		for _, e := range src.Entries() {
			if e.Table == table {
				entries = append(entries, e)
			}
		}
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No rows in %s.\n", table)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tMULTIPLIER\tVERSION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, strconv.FormatFloat(e.Multiplier, 'f', -1, 64), e.Version)
	}
	return tw.Flush()
}
