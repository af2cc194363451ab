package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/twinsgen/twin-problem-service/internal/store"
)

var bankSubject string

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect and edit the problem bank",
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved problems, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, problems *store.ProblemStore) error {
			all, err := problems.List(ctx)
			if err != nil {
				return err
			}
			printSaved(cmd.OutOrStdout(), store.FilterBySubject(all, bankSubject))
			return nil
		})
	},
}

var bankSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search question text, topic and sub-topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, problems *store.ProblemStore) error {
			found, err := problems.Search(ctx, args[0])
			if err != nil {
				return err
			}
			printSaved(cmd.OutOrStdout(), store.FilterBySubject(found, bankSubject))
			return nil
		})
	},
}

var bankDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a saved problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, problems *store.ProblemStore) error {
			if err := problems.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "삭제됨: %s\n", args[0])
			return nil
		})
	},
}

var bankSubjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subjects present in the bank",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, problems *store.ProblemStore) error {
			subjects, err := problems.Subjects(ctx)
			if err != nil {
				return err
			}
			for _, s := range subjects {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		})
	},
}

func init() {
	bankListCmd.Flags().StringVar(&bankSubject, "subject", "", "only problems of this subject")
	bankSearchCmd.Flags().StringVar(&bankSubject, "subject", "", "only problems of this subject")

	bankCmd.AddCommand(bankListCmd, bankSearchCmd, bankDeleteCmd, bankSubjectsCmd)
	rootCmd.AddCommand(bankCmd)
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, problems *store.ProblemStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	problems, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer problems.Close()
	return fn(ctx, problems)
}
