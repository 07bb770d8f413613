package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

func newWatchCommand(logger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Log document changes in the data directory until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			portal, err := openPortal(logger)
			if err != nil {
				return err
			}
			sub, err := portal.Store().SubscribeChanges()
			if err != nil {
				return err
			}
			defer sub.Close()

			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case name, ok := <-sub.Events():
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "changed: %s\n", name)
				}
			}
		},
	}
}
