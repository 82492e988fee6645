package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"houndarr/internal/ipc"
)

func newPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause [instance]",
		Short: "Pause hunting globally or for one instance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instance := instanceArg(args)
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Pause(instance); err != nil {
					return err
				}
				if instance == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Hunting paused globally")
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Instance %s paused\n", instance)
				}
				return nil
			})
		},
	}
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume [instance]",
		Short: "Resume hunting globally or for one instance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instance := instanceArg(args)
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Resume(instance); err != nil {
					return err
				}
				if instance == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Hunting resumed globally")
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Instance %s resumed\n", instance)
				}
				return nil
			})
		},
	}
}

func newForceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "force <instance>",
		Short: "Queue an immediate hunt cycle for an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instance := args[0]
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ForceRun(instance); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Force run queued for %s\n", instance)
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset [instance]",
		Short: "Clear processed-item state so items become huntable again",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instance := instanceArg(args)
			if instance == "" && !all {
				return fmt.Errorf("specify an instance name or pass --all")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reset(instance)
				if err != nil {
					return err
				}
				if instance == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d processed records across all instances\n", resp.Removed)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d processed records for %s\n", resp.Removed, instance)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reset every instance")
	return cmd
}

func newDryRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run <on|off>",
		Short: "Toggle dry-run mode at runtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseToggle(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SetDryRun(enabled); err != nil {
					return err
				}
				if enabled {
					fmt.Fprintln(cmd.OutOrStdout(), "Dry run enabled; remote mutations are suppressed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Dry run disabled")
				}
				return nil
			})
		},
	}
}

func instanceArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func parseToggle(value string) (bool, error) {
	switch value {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid toggle %q (use on or off)", value)
	}
	return parsed, nil
}
