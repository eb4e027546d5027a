package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ashureev/healthcoach/internal/cli"
	"github.com/ashureev/healthcoach/internal/store"
)

func newSeedCommand() *cobra.Command {
	var dbPath, redisAddr, redisPrefix string

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Import learner profiles and progress from a YAML file",
		Long: "Import learner profiles and progress from a YAML file into the local SQLite store.\n" +
			"With --redis-addr, progress records are written to Redis instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			seed, err := cli.LoadSeedFile(f)
			if err != nil {
				return err
			}

			repo, err := store.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer repo.Close()

			var progress cli.ProgressWriter = repo
			if redisAddr != "" {
				rs, err := store.NewRedisProgress(ctx, redisAddr, redisPrefix)
				if err != nil {
					return fmt.Errorf("connect redis: %w", err)
				}
				defer rs.Close()
				progress = rs
			}

			n, err := cli.Seed(ctx, repo, progress, seed)
			if err != nil {
				return fmt.Errorf("seed after %d users: %w", n, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Seeded %d learners into %s\n", n, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", envOr("DB_PATH", "./data/healthcoach.db"), "SQLite database path")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "write progress to this Redis server")
	cmd.Flags().StringVar(&redisPrefix, "redis-prefix", envOr("REDIS_KEY_PREFIX", "progress:"), "Redis progress key prefix")
	return cmd
}
