package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"biliwalle/internal/protocol"
	"biliwalle/internal/weave"
)

func newProtocolCommand(ctx *commandContext) *cobra.Command {
	protocolCmd := &cobra.Command{
		Use:   "protocol",
		Short: "Inspect the protocol table",
	}
	protocolCmd.AddCommand(newProtocolShowCommand(ctx))
	return protocolCmd
}

func newProtocolShowCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var groups bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the protocol rows, or with --groups the weave plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			table, err := protocol.Read(cfg.Data.ProtocolCSV)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if groups {
				plans, err := weave.BuildPlans(cfg, table)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(plans))
				for _, plan := range plans {
					rows = append(rows, []string{plan.Group, strconv.Itoa(len(plan.Items)), plan.Output})
				}
				fmt.Fprintln(out, renderTable([]column{{Title: "Group"}, {Title: "Items", Right: true}, {Title: "Output"}}, rows))
				fmt.Fprintf(out, "%d groups\n", len(plans))
				return nil
			}

			columns := make([]column, 0, len(table.Header)+1)
			columns = append(columns, column{Title: "Line", Right: true})
			for _, h := range table.Header {
				columns = append(columns, column{Title: h})
			}
			shown := table.Rows
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			rows := make([][]string, 0, len(shown))
			for _, row := range shown {
				rows = append(rows, append([]string{strconv.Itoa(row.Line)}, row.Values()...))
			}
			fmt.Fprintln(out, renderTable(columns, rows))
			fmt.Fprintf(out, "%d of %d rows from %s\n", len(shown), len(table.Rows), table.Path)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to print (0 for all)")
	cmd.Flags().BoolVar(&groups, "groups", false, "Show weave groups, item counts, and output names")
	return cmd
}
