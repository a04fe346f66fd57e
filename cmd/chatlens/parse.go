package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <export.txt>",
		Short: "Parse one export file and print its records",
		Long: `Parse one export file and print its records without touching the index.
Default output is TSV: date, user, period, message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parse.ParseFile(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result.Records)
			}

			for _, r := range result.Records {
				msg := strings.ReplaceAll(r.Message, "\t", " ")
				msg = strings.ReplaceAll(msg, "\n", " ")
				fmt.Printf("%s\t%s\t%s\t%s\n", r.Date.Format("2006-01-02 15:04"), r.User, r.Period, msg)
			}
			fmt.Fprintf(os.Stderr, "%d records, %d participants\n", len(result.Records), len(result.Meta.Users))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	return cmd
}
