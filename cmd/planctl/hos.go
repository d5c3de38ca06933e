package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func hosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hos",
		Short: "Check a driver's current hours against the HOS limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine()
			if err != nil {
				return err
			}

			var lastRest *float64
			if cmd.Flags().Changed("last-rest") {
				v, _ := cmd.Flags().GetFloat64("last-rest")
				lastRest = &v
			}
			driven, _ := cmd.Flags().GetFloat64("driven")
			duty, _ := cmd.Flags().GetFloat64("duty")
			sinceBreak, _ := cmd.Flags().GetFloat64("since-break")

			res, err := engine.ValidateCompliance(driven, duty, sinceBreak, lastRest)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(res)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Check", "Compliant", "Remaining (h)", "Message"})
			for _, c := range []struct {
				name string
				ok   bool
				left float64
				msg  string
			}{
				{"drive", res.Drive.IsCompliant, res.Drive.HoursRemaining, res.Drive.Message},
				{"duty", res.Duty.IsCompliant, res.Duty.HoursRemaining, res.Duty.Message},
				{"break", res.Break.IsCompliant, res.Break.HoursRemaining, res.Break.Message},
			} {
				tw.AppendRow(table.Row{c.name, c.ok, fmt.Sprintf("%.2f", c.left), c.msg})
			}
			tw.AppendFooter(table.Row{"status", res.Status, fmt.Sprintf("%.2f", res.HoursRemainingToDrive), ""})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().Float64("driven", 0, "hours driven since the last full rest")
	cmd.Flags().Float64("duty", 0, "on-duty hours since the last full rest")
	cmd.Flags().Float64("since-break", 0, "driving hours since the last 30 minute break")
	cmd.Flags().Float64("last-rest", 0, "length of the last rest period in hours")
	return cmd
}
