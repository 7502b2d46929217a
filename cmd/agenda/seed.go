package main

import (
	"fmt"
	"os"

	"agenda/internal/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSeedCommand(rt *runtime) *cobra.Command {
	var file string
	var demo bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the professional directory, optionally adding demo reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := readProfessionals(file)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), rt.cfg, &rt.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.directory.Seed(cmd.Context(), list)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d profissionais inseridos\n", n)

			if demo {
				created, err := a.bookings.SeedDemo(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d reservas de demonstração criadas\n", created)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML list of professionals (default: built-in list)")
	cmd.Flags().BoolVar(&demo, "demo", false, "also insert demo reservations when none exist")
	return cmd
}

// readProfessionals returns nil for an empty path so the directory falls back to its defaults.
func readProfessionals(path string) ([]models.Professional, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var list []models.Professional
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s contains no professionals", path)
	}
	return list, nil
}
