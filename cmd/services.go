package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beamly/fastlydash/internal/config"
	"github.com/beamly/fastlydash/internal/models"
)

func newServicesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "services [fastly_api_key]",
		Short: "List the configured Fastly services",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, v, args)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			dir, err := newAPIClient(cfg, log).ListServices(ctx)
			if err != nil {
				return fmt.Errorf("fetching services: %w", err)
			}

			return printServices(cmd.OutOrStdout(), dir, cfg.Output)
		},
	}
}

func printServices(w io.Writer, dir models.ServiceDirectory, format config.OutputFormat) error {
	services := dir.Services()

	if format == config.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(services)
	}

	if len(services) == 0 {
		_, err := fmt.Fprintln(w, "No services configured.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})
	for _, s := range services {
		t.Row(s.Name, s.ID)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d services\n", len(services))
	return err
}
