package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/pkg/duckduckgo"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify connectivity to the DuckDuckGo API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts := []duckduckgo.Option{}
		if cfg.Search.BaseURL != "" {
			opts = append(opts, duckduckgo.WithBaseURL(cfg.Search.BaseURL))
		}
		client := duckduckgo.NewClient(opts...)

		start := time.Now()
		result := client.Verify(ctx)
		elapsed := time.Since(start)

		if !result.Success {
			zap.L().Error("verification failed",
				zap.String("message", result.Message),
				zap.Duration("elapsed", elapsed),
			)
			return eris.New(result.Message)
		}

		zap.L().Info("verification succeeded", zap.Duration("elapsed", elapsed))
		fmt.Println("ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
