package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elastiq/elastiq"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Build and execute a single search query",
	Long: `Build a search query from flags and execute it against the configured
connection.

Examples:
  elastiq search --index posts --match title=golang --size 10
  elastiq search --index posts --term status=published --sort created_at:desc
  elastiq search --index posts --match title=golang --explain`,
	RunE: func(cmd *cobra.Command, args []string) error {
		index, _ := cmd.Flags().GetString("index")
		matches, _ := cmd.Flags().GetStringArray("match")
		terms, _ := cmd.Flags().GetStringArray("term")
		sorts, _ := cmd.Flags().GetStringArray("sort")
		size, _ := cmd.Flags().GetInt("size")
		from, _ := cmd.Flags().GetInt("from")
		explain, _ := cmd.Flags().GetBool("explain")

		qb, err := manager.QueryOn(connectionName)
		if err != nil {
			return err
		}

		if index != "" {
			qb.Index(strings.Split(index, ",")...)
		}
		if err := applyPairs(qb, matches, terms, sorts); err != nil {
			return err
		}
		if cmd.Flags().Changed("size") {
			qb.Size(size)
		}
		if cmd.Flags().Changed("from") {
			qb.From(from)
		}

		if explain {
			return printJSON(qb.Build())
		}

		res, err := qb.Execute(context.Background())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	searchCmd.Flags().String("index", "", "Index name or comma-separated names")
	searchCmd.Flags().StringArray("match", nil, "Match clause as field=value (repeatable)")
	searchCmd.Flags().StringArray("term", nil, "Term clause as field=value (repeatable)")
	searchCmd.Flags().StringArray("sort", nil, "Sort key as field[:asc|desc] (repeatable)")
	searchCmd.Flags().Int("size", 0, "Page size")
	searchCmd.Flags().Int("from", 0, "Result offset")
	searchCmd.Flags().Bool("explain", false, "Print the built request body instead of executing")
}

// applyPairs translates the flag values onto the builder.
func applyPairs(qb *elastiq.QueryBuilder, matches, terms, sorts []string) error {
	for _, m := range matches {
		field, value, err := splitPair(m, "=")
		if err != nil {
			return fmt.Errorf("invalid --match %q: %w", m, err)
		}
		qb.Match(field, value)
	}
	for _, t := range terms {
		field, value, err := splitPair(t, "=")
		if err != nil {
			return fmt.Errorf("invalid --term %q: %w", t, err)
		}
		qb.Term(field, value)
	}
	for _, s := range sorts {
		if field, order, err := splitPair(s, ":"); err == nil {
			qb.Sort(field, order)
		} else {
			qb.Sort(s)
		}
	}
	return nil
}

func splitPair(raw, sep string) (string, string, error) {
	parts := strings.SplitN(raw, sep, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected <field>%s<value>", sep)
	}
	return parts[0], parts[1], nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
