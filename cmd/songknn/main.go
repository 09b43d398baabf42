package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/mattn/go-shellwords"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/viant/xtree/config"
)

func main() {
	rootCmd := newRootCommand()
	rootCmd.SetOutput(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		rootCmd.Println(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "songknn",
		Short:         "k nearest neighbour search over song attributes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(newBuildCommand(), newQueryCommand(), newREPLCommand(), newSQLCommand())
	return rootCmd
}

// withApp loads the configuration, builds the index and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg := config.NewConfig()
	if err := cfg.Parse(cmd.Flags()); err != nil {
		return err
	}
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.load(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func newBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Load the dataset, build the index and print its shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app) error {
				a.printStats()
				return nil
			})
		},
	}
}

func newQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query -- <k> <14 attribute values>",
		Short: "Answer a single kNN query",
		Args:  cobra.ExactArgs(15),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, raw, err := parseQuery(args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				query, hits, err := a.knn(ctx, raw, k)
				if err != nil {
					return err
				}
				printHits(a.out, a.normalizer, query, hits)
				return nil
			})
		},
	}
}

func newSQLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sql <statement>",
		Short: "Run a SQL statement against the catalog; song_knn answers id MATCH <vector> AND k = <n>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return a.runSQL(ctx, args[0])
			})
		},
	}
}

func newREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Answer kNN queries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, _ := cmd.Flags().GetString("history")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return loop(ctx, a, history)
			})
		},
	}
	cmd.Flags().String("history", "/tmp/songknn.history", "readline history file")
	return cmd
}

func loop(ctx context.Context, a *app, history string) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            "knn» ",
		HistoryFile:       history,
		InterruptPrompt:   "^C",
		EOFPrompt:         "^D",
		HistorySearchFold: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	defer l.Close()

	a.out = l.Stdout()
	parser := shellwords.NewParser()
	a.logger.Info("repl started", zap.String("history", history))
	for {
		if ctx.Err() != nil {
			return nil
		}
		a.printPrompt()
		line, err := l.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		args, err := parser.Parse(line)
		if err != nil {
			a.printError(err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		k, raw, err := parseQuery(args)
		if err != nil {
			a.printError(err)
			continue
		}
		query, hits, err := a.knn(ctx, raw, k)
		if err != nil {
			a.printError(err)
			continue
		}
		printHits(a.out, a.normalizer, query, hits)
	}
}
