package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/odyomed/resolve/config"
)

// SearchCmd runs a one-shot resolution against the local database
var SearchCmd = &cobra.Command{
	Use:   "search <kind> <query>",
	Short: "Resolve a name against the local database",
	Long: `Run one resolution pass for the given entity kind and free-typed query,
printing ranked candidates and whether a "create new" entry would be
offered.

Examples:
  resolved search brand raiovac
  resolved search category "işitme cihazı"
  resolved search supplier duracell --json`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

var (
	searchJSON   bool
	searchDBPath string
)

func init() {
	SearchCmd.Flags().BoolVarP(&searchJSON, "json", "j", false, "Output result as JSON")
	SearchCmd.Flags().StringVar(&searchDBPath, "db-path", "", "Database path (overrides config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	query := args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if searchDBPath != "" {
		cfg.Database.Path = searchDBPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, store, err := openStore(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	synonyms, err := loadSynonyms(cfg)
	if err != nil {
		return err
	}

	stacks := buildStacks(cfg, store, synonyms)
	result := stacks[kind].resolver.Resolve(ctx, query)

	if searchJSON {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	if len(result.Matches) == 0 {
		pterm.Warning.Printf("No matches for %q\n", query)
	} else {
		rows := pterm.TableData{{"SCORE", "NAME", "MATCHED"}}
		for _, m := range result.Matches {
			rows = append(rows, []string{
				fmt.Sprintf("%.2f", m.Score),
				m.Entity.Name,
				strings.Join(m.MatchedFields, ", "),
			})
		}
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}

	if result.Create != nil {
		pterm.Info.Printf("No close match; %q can be created\n", result.Create.ProposedName)
	}

	return nil
}
