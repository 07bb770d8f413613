package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

// collectionNames lists every document the portal owns, in display order.
var collectionNames = []string{
	"users",
	"posts",
	"subscriptions",
	"reactions",
	"invites",
	"parking",
	"parking_state",
	"guests",
}

func newStatusCommand(logger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-collection file sizes and backup state",
		RunE: func(cmd *cobra.Command, args []string) error {
			portal, err := openPortal(logger)
			if err != nil {
				return err
			}
			dir := portal.Store().Dir()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLLECTION\tSIZE\tBACKUP\tMODIFIED")
			for _, name := range collectionNames {
				path := filepath.Join(dir, name+".json")
				size := "-"
				modified := "-"
				if info, err := os.Stat(path); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
					modified = humanize.Time(info.ModTime())
				}
				backup := "-"
				if info, err := os.Stat(path + ".bak"); err == nil {
					backup = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, size, backup, modified)
			}
			return w.Flush()
		},
	}
}
