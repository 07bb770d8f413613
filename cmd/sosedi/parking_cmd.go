package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"pkt.systems/pslog"

	"github.com/sosedi-hub/sosedi/internal/repo"
)

func newParkingCommand(logger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parking",
		Short: "Parking configuration and maintenance",
	}
	cmd.AddCommand(newParkingInitCommand(logger))
	cmd.AddCommand(newParkingSweepCommand(logger))
	return cmd
}

func newParkingInitCommand(logger pslog.Logger) *cobra.Command {
	var seedFile string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Seed the parking configuration from a YAML file",
		Example: `sosedi parking init --file parking.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seedFile == "" {
				return fmt.Errorf("--file is required")
			}
			raw, err := os.ReadFile(seedFile)
			if err != nil {
				return err
			}
			cfg, err := parseParkingSeed(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", seedFile, err)
			}
			portal, err := openPortal(logger)
			if err != nil {
				return err
			}
			if err := portal.ParkingConfig().Save(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d parking spots.\n", len(cfg.Spots))
			return nil
		},
	}
	cmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file describing the parking spots")
	return cmd
}

// parkingSeed is the YAML shape accepted by parking init.
type parkingSeed struct {
	Spots []struct {
		ID    string `yaml:"id"`
		Label string `yaml:"label"`
	} `yaml:"spots"`
}

func parseParkingSeed(raw []byte) (repo.ParkingConfig, error) {
	var seed parkingSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return repo.ParkingConfig{}, err
	}
	cfg := repo.ParkingConfig{Spots: make([]repo.ParkingSpot, 0, len(seed.Spots))}
	for _, s := range seed.Spots {
		if s.ID == "" {
			return repo.ParkingConfig{}, fmt.Errorf("every spot needs an id")
		}
		cfg.Spots = append(cfg.Spots, repo.ParkingSpot{
			ID:    repo.SpotID(s.ID),
			Label: s.Label,
		})
	}
	return cfg, nil
}

func newParkingSweepCommand(logger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reservation expiry sweep and report occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			portal, err := openPortal(logger)
			if err != nil {
				return err
			}
			state, err := portal.ParkingState().Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Occupied spots: %d, spots with subscribers: %d\n",
				len(state.Spots), len(state.Subscriptions))
			return nil
		},
	}
}
