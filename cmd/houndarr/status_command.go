package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"houndarr/internal/api"
	"houndarr/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and instance status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				status := resp.Status

				fmt.Fprintf(stdout, "Daemon:   running (pid %d)\n", status.PID)
				fmt.Fprintf(stdout, "Paused:   %s\n", yesNo(status.GloballyPaused))
				fmt.Fprintf(stdout, "Dry run:  %s\n", yesNo(status.DryRun))
				fmt.Fprintf(stdout, "Swaparr:  %s\n", enabledDisabled(status.SwaparrEnabled))
				fmt.Fprintf(stdout, "State DB: %s\n", status.StateDBPath)
				fmt.Fprintln(stdout)

				if len(status.Instances) == 0 {
					fmt.Fprintln(stdout, "No instances configured")
					return nil
				}

				rows := make([][]string, 0, len(status.Instances))
				for _, inst := range status.Instances {
					rows = append(rows, []string{
						inst.Name,
						inst.App,
						instancePhase(inst),
						fmt.Sprintf("%d/%s", inst.RateUsed, rateCapLabel(inst.RateCap)),
						lastRunLabel(inst.LastRun),
						fmt.Sprintf("%d", inst.LastMissingSearched),
						fmt.Sprintf("%d", inst.LastUpgradeSearched),
					})
				}
				table := renderTable(
					[]string{"Instance", "App", "Phase", "Rate", "Last Run", "Missing", "Upgrades"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight},
				)
				fmt.Fprintln(stdout, table)

				for _, inst := range status.Instances {
					if strings.TrimSpace(inst.LastError) != "" {
						line := fmt.Sprintf("%s: last error: %s", inst.Name, inst.LastError)
						if colorize {
							line = ansiYellow + line + ansiReset
						}
						fmt.Fprintln(stdout, line)
					}
				}
				return nil
			})
		},
	}
}

func instancePhase(inst api.InstanceStatus) string {
	switch {
	case inst.Unconfigured:
		return "unconfigured"
	case inst.Paused:
		return "paused"
	default:
		return inst.Phase
	}
}

func rateCapLabel(limit int) string {
	if limit <= 0 {
		return "0"
	}
	return fmt.Sprintf("%d", limit)
}

func lastRunLabel(lastRun string) string {
	if strings.TrimSpace(lastRun) == "" {
		return "never"
	}
	return lastRun
}

func enabledDisabled(value bool) string {
	if value {
		return "enabled"
	}
	return "disabled"
}
