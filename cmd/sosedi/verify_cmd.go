package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/sosedi-hub/sosedi"
	"github.com/sosedi-hub/sosedi/internal/docstore"
)

func newVerifyCommand(logger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run diagnostic checks",
	}
	cmd.AddCommand(newVerifyStoreCommand(logger))
	return cmd
}

func newVerifyStoreCommand(logger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "Verify the data directory's durability guarantees",
		Example: strings.TrimSpace(`
# Verify the default data directory
sosedi verify store

# Verify a specific directory
sosedi verify store --data-dir /var/lib/sosedi
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg sosedi.Config
			if err := bindConfig(&cfg, logger); err != nil {
				return err
			}

			checks := docstore.Verify(cmd.Context(), docstore.Config{
				Dir:    cfg.DataDir,
				Logger: logger,
			})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data directory: %s\n\n", cfg.DataDir)
			for _, check := range checks {
				if check.Err == nil {
					fmt.Fprintf(out, "✔ %s\n", check.Name)
				} else {
					fmt.Fprintf(out, "✘ %s: %v\n", check.Name, check.Err)
				}
			}
			if docstore.Passed(checks) {
				fmt.Fprintln(out, "\nStorage verification succeeded.")
				return nil
			}
			return fmt.Errorf("storage verification failed")
		},
	}
}
