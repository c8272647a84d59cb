package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/elastiq/elastiq"
)

// msearchEntry is the JSON shape accepted per named query on stdin.
type msearchEntry struct {
	Index string            `json:"index"`
	Match map[string]string `json:"match"`
	Term  map[string]string `json:"term"`
	Size  *int              `json:"size"`
	From  *int              `json:"from"`
}

var msearchCmd = &cobra.Command{
	Use:   "msearch",
	Short: "Build and execute a batched multi-search",
	Long: `Read a JSON object of named queries from stdin, batch them into one
msearch round trip and print the name-keyed results.

Input shape:
  {
    "recent_posts": {"index": "posts", "match": {"title": "golang"}, "size": 5},
    "authors":      {"index": "users", "term": {"active": "true"}}
  }

Example:
  cat queries.json | elastiq msearch
  cat queries.json | elastiq msearch --explain`,
	RunE: func(cmd *cobra.Command, args []string) error {
		explain, _ := cmd.Flags().GetBool("explain")

		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}

		var entries map[string]msearchEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("invalid input: %w", err)
		}

		mb, err := manager.MultiOn(connectionName)
		if err != nil {
			return err
		}

		for name, entry := range entries {
			entry := entry
			mb.Add(name, func(qb *elastiq.QueryBuilder) {
				if entry.Index != "" {
					qb.Index(entry.Index)
				}
				for field, value := range entry.Match {
					qb.Match(field, value)
				}
				for field, value := range entry.Term {
					qb.Term(field, value)
				}
				if entry.Size != nil {
					qb.Size(*entry.Size)
				}
				if entry.From != nil {
					qb.From(*entry.From)
				}
			})
		}

		if explain {
			return printJSON(mb.Build())
		}

		res, err := mb.Execute(context.Background())
		if err != nil {
			return err
		}
		return printJSON(res.Responses)
	},
}

func init() {
	msearchCmd.Flags().Bool("explain", false, "Print the built wire body instead of executing")
}
