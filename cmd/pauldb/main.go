// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pauldb"
)

type openFlags struct {
	dir      string
	create   bool
	config   string
	logLevel string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pauldb",
		Short: "Embeddable relational database engine",
	}

	rootCmd.AddCommand(openCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openCmd() *cobra.Command {
	flags := &openFlags{}
	cmd := &cobra.Command{
		Use:   "open <dir>",
		Short: "Open (creating if --create) a file-backed database and list its tables",
		Long: `Open connects to the paged file-backed engine rooted at <dir>, running the
same bootstrap/reopen sequence a host process triggers on its first Open
call, then prints every live table the catalog currently knows about.

Examples:
  pauldb open ./data --create
  pauldb open ./data --config pauldb.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.dir = args[0]
			return runOpen(flags)
		},
	}
	cmd.Flags().BoolVarP(&flags.create, "create", "c", false, "Create the database if it does not exist")
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to a TOML options file (overrides --create/--log-level)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	return cmd
}

func runOpen(flags *openFlags) error {
	opts := pauldb.OpenOptions{Dir: flags.dir, Create: flags.create, LogLevel: flags.logLevel}
	if flags.config != "" {
		loaded, err := pauldb.LoadOptions(flags.config)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		opts = loaded
	}

	db, err := pauldb.OpenFile(flags.dir, opts)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", flags.dir, err)
	}
	defer func() {
		if err := db.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close database: %v\n", err)
		}
	}()

	tables := db.Tables()
	fmt.Printf("Tables found: %d\n", len(tables))
	for _, t := range tables {
		fmt.Printf("- %s.%s (table-id %d, schema version %d)\n", t.DB, t.Name, t.ID, t.Version)
	}
	return nil
}
