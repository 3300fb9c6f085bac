package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the vocabulary store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate vocabulary store")
		}

		zap.L().Info("migration complete", zap.String("driver", cfg.Vocab.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
