package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/internal/enrich"
	"github.com/entityforge/enrich-cli/internal/model"
)

var (
	enrichName    string
	enrichWebsite string
	enrichType    string
	enrichOrigin  string
	enrichID      string
	enrichOutput  string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a single organization entity",
	Long: `Runs one enrichment pass for an organization given by name and/or
website and prints the resulting clues as JSON.

Examples:
  enrich-cli enrich --name "Acme Corporation"
  enrich-cli enrich --name Acme --website https://acme.com --output clues.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if strings.TrimSpace(enrichName) == "" && strings.TrimSpace(enrichWebsite) == "" {
			return eris.New("enrich: at least one of --name or --website is required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		entity := buildEntity(enrichName, enrichWebsite, enrichType, enrichOrigin, enrichID)

		clues, err := env.Enricher.EnrichEntity(ctx, entity)
		if err != nil {
			return eris.Wrap(err, "enrich entity")
		}

		zap.L().Info("enrichment complete",
			zap.String("entity", entity.Name),
			zap.Int("clues", len(clues)),
		)

		return writeClues(clues, enrichOutput)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "organization name")
	enrichCmd.Flags().StringVar(&enrichWebsite, "website", "", "organization website URL or domain")
	enrichCmd.Flags().StringVar(&enrichType, "type", "", "entity type (default from config)")
	enrichCmd.Flags().StringVar(&enrichOrigin, "origin", "cli", "origin system for the entity code")
	enrichCmd.Flags().StringVar(&enrichID, "id", "", "origin identifier (default: the name)")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "write clues JSON to file (default: stdout)")
	rootCmd.AddCommand(enrichCmd)
}

// buildEntity assembles an ad-hoc entity from command line values, using the
// configured vocabulary keys so the extractor sees the same shape it would
// for platform-submitted entities.
func buildEntity(name, website, entityType, origin, id string) *model.Entity {
	if entityType == "" {
		entityType = cfg.Connector.AcceptedEntityType
	}
	if entityType == "" {
		entityType = model.DefaultEntityType
	}
	if id == "" {
		id = name
	}

	nameKey := cfg.Connector.OrgNameKey
	if nameKey == "" {
		nameKey = enrich.DefaultOrgNameKey
	}
	websiteKey := cfg.Connector.WebsiteKey
	if websiteKey == "" {
		websiteKey = enrich.DefaultWebsiteKey
	}

	fields := map[string][]string{}
	if name != "" {
		fields[nameKey] = []string{name}
	}
	if website != "" {
		fields[websiteKey] = []string{website}
	}

	return &model.Entity{
		Type: entityType,
		Name: name,
		OriginCode: model.EntityCode{
			Type:   entityType,
			Origin: origin,
			Value:  id,
		},
		Fields: fields,
	}
}

// writeClues writes clues to the output file or stdout.
func writeClues(clues []*model.Clue, output string) error {
	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrap(err, "enrich: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(clues)
}
