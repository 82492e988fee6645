package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"houndarr/internal/ipc"
)

func newSwaparrCommand(ctx *commandContext) *cobra.Command {
	swaparrCmd := &cobra.Command{
		Use:   "swaparr",
		Short: "Stalled-download strike utilities",
	}
	swaparrCmd.AddCommand(newSwaparrStrikesCommand(ctx))
	return swaparrCmd
}

func newSwaparrStrikesCommand(ctx *commandContext) *cobra.Command {
	var instance string
	cmd := &cobra.Command{
		Use:   "strikes",
		Short: "List tracked downloads and their strike counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Strikes(instance)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(stdout, "No tracked downloads")
					return nil
				}

				rows := make([][]string, 0, len(resp.Records))
				for _, record := range resp.Records {
					rows = append(rows, []string{
						record.Instance,
						truncateTitle(record.Title, 48),
						fmt.Sprintf("%d", record.Strikes),
						humanize.Bytes(uint64(max(record.LastProgress, 0))),
						record.LastCheckedAt,
						yesNo(record.IsPrivate),
					})
				}
				table := renderTable(
					[]string{"Instance", "Title", "Strikes", "Progress", "Last Checked", "Private"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&instance, "instance", "", "Limit output to one instance")
	return cmd
}

func truncateTitle(title string, limit int) string {
	if limit <= 3 || len(title) <= limit {
		return title
	}
	return title[:limit-3] + "..."
}
