package main

import (
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/internal/model"
)

var (
	batchCSV    string
	batchLimit  int
	batchOutput string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch enrich organizations from a CSV file",
	Long: `Reads organizations from a CSV with a header row containing at least
one of the columns "name" and "website" (optionally "origin" and "id"),
enriches them concurrently, and writes all produced clues as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		entities, err := readEntitiesCSV(batchCSV)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(entities) > batchLimit {
			entities = entities[:batchLimit]
		}
		if len(entities) == 0 {
			zap.L().Info("no entities to process")
			return nil
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("processing batch",
			zap.Int("entities", len(entities)),
			zap.Int("concurrency", cfg.Batch.MaxConcurrentEntities),
		)

		clues, err := env.Enricher.EnrichBatch(ctx, entities, cfg.Batch.MaxConcurrentEntities)
		if err != nil {
			return eris.Wrap(err, "batch processing")
		}

		zap.L().Info("batch complete",
			zap.Int("entities", len(entities)),
			zap.Int("clues", len(clues)),
		)

		return writeClues(clues, batchOutput)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to CSV file (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max entities to process (0 = all)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write clues JSON to file (default: stdout)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

// readEntitiesCSV parses a header-mapped CSV into entities. Rows with neither
// a name nor a website are skipped.
func readEntitiesCSV(path string) ([]*model.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv header")
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, hasName := cols["name"]; !hasName {
		if _, hasWebsite := cols["website"]; !hasWebsite {
			return nil, eris.New(`batch: csv header must contain a "name" or "website" column`)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var entities []*model.Entity
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read csv line %d", line)
		}

		name := field(record, "name")
		website := field(record, "website")
		if name == "" && website == "" {
			zap.L().Warn("skipping row without name or website", zap.Int("line", line))
			continue
		}

		origin := field(record, "origin")
		if origin == "" {
			origin = "csv"
		}
		id := field(record, "id")

		entities = append(entities, buildEntity(name, website, "", origin, id))
	}

	return entities, nil
}
