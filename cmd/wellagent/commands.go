package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilhg/wellagent/pkg/config"
	"github.com/wilhg/wellagent/pkg/eval"
	"github.com/wilhg/wellagent/pkg/mcpserver"
	"github.com/wilhg/wellagent/pkg/prompt"
	"github.com/wilhg/wellagent/pkg/store/gormstore"
)

func newCycleCmd(cfgPath func() string) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one cognitive cycle for a user and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfgPath())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			rep, err := a.orch.CognitiveCycle(cmd.Context(), user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newReflectCmd(cfgPath func() string) *cobra.Command {
	var user, from, to string
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Reflect on a period and store the reflection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := period(from, to, time.Now().UTC())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfgPath())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			r, _, err := a.orch.Reflect(cmd.Context(), user, start, end)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&from, "from", "", "period start, YYYY-MM-DD (default: 7 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "period end, YYYY-MM-DD (default: now)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// period parses the reflect flags. A date-only end covers that whole day.
func period(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := now
	if to != "" {
		d, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
		}
		end = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	start := end.AddDate(0, 0, -7)
	if from != "" {
		d, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
		start = d
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must be after --from")
	}
	return start, end, nil
}

func newMigrateCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cfgPath())
			if err != nil {
				return err
			}
			defer log.Sync()
			st, err := gormstore.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("schema migrated")
			return nil
		},
	}
}

func newMCPCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agents as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfgPath())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return mcpserver.New(a.orch, version, mcpserver.WithLogger(a.log)).ServeStdio(cmd.Context())
		},
	}
}

func newPromptsCmd(cfgPath func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect the agent system prompts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List prompts and their versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := promptsFor(cfgPath())
			if err != nil {
				return err
			}
			for _, name := range ps.Names() {
				for _, p := range ps.List(name) {
					src := p.Meta["source"]
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tv%d\t%s\n", name, p.Version, src)
				}
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "diff NAME",
		Short: "Show how an override differs from the built-in prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := promptsFor(cfgPath())
			if err != nil {
				return err
			}
			versions := ps.List(args[0])
			if len(versions) == 0 {
				return fmt.Errorf("unknown prompt %q", args[0])
			}
			last := versions[len(versions)-1].Version
			if last == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), "no override")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), ps.Diff(args[0], 1, last))
			return nil
		},
	})
	return cmd
}

func newEvalCmd(cfgPath func() string) *cobra.Command {
	var minScore float64
	cmd := &cobra.Command{
		Use:   "eval DIR",
		Short: "Score the agents against recorded cases in DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := promptsFor(cfgPath())
			if err != nil {
				return err
			}
			rep, err := eval.EvaluateAgentFixtures(cmd.Context(), os.DirFS(args[0]), ".", ps)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if rep.Score < minScore {
				return fmt.Errorf("score %.2f below %.2f", rep.Score, minScore)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&minScore, "min-score", 1, "fail when the score is lower")
	return cmd
}

func promptsFor(path string) (*prompt.Store, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return loadPrompts(cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
