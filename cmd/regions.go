package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chukul/cloudview/internal/resource"
	"github.com/chukul/cloudview/internal/ui"
)

var regionsSelect bool

func init() {
	regionsCmd.Flags().BoolVar(&regionsSelect, "select", false, "Pick a region interactively and print its code")
	rootCmd.AddCommand(regionsCmd)
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the AWS regions the viewer can query",
	RunE: func(cmd *cobra.Command, args []string) error {
		if regionsSelect {
			code, err := ui.SelectRegion(cfg.Region)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"", "CODE", "NAME"})
		for _, r := range resource.Regions {
			marker := ""
			if r.Code == cfg.Region {
				marker = "*"
			}
			t.AppendRow(table.Row{marker, r.Code, r.Label})
		}
		t.Render()

		if viper.ConfigFileUsed() == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "💡 Set a default with `region: <code>` in ~/.cloudview/config.yaml or --region")
		}
		return nil
	},
}
