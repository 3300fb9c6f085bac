package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entityforge/enrich-cli/internal/config"
)

func TestBuildEntity_Defaults(t *testing.T) {
	cfg = &config.Config{}

	e := buildEntity("Acme", "https://acme.com", "", "cli", "")

	assert.Equal(t, "/Organization", e.Type)
	assert.Equal(t, "Acme", e.Name)
	assert.Equal(t, "/Organization", e.OriginCode.Type)
	assert.Equal(t, "cli", e.OriginCode.Origin)
	assert.Equal(t, "Acme", e.OriginCode.Value) // id falls back to the name
	assert.Equal(t, []string{"Acme"}, e.Fields["organization.name"])
	assert.Equal(t, []string{"https://acme.com"}, e.Fields["organization.website"])
}

func TestBuildEntity_ConfiguredKeysAndType(t *testing.T) {
	cfg = &config.Config{}
	cfg.Connector.AcceptedEntityType = "/Vendor"
	cfg.Connector.OrgNameKey = "vendor.label"
	cfg.Connector.WebsiteKey = "vendor.url"

	e := buildEntity("Acme", "acme.com", "", "crm", "v-7")

	assert.Equal(t, "/Vendor", e.Type)
	assert.Equal(t, "v-7", e.OriginCode.Value)
	assert.Equal(t, []string{"Acme"}, e.Fields["vendor.label"])
	assert.Equal(t, []string{"acme.com"}, e.Fields["vendor.url"])
}

func TestBuildEntity_ExplicitTypeWins(t *testing.T) {
	cfg = &config.Config{}
	cfg.Connector.AcceptedEntityType = "/Vendor"

	e := buildEntity("Acme", "", "/Organization/School", "cli", "s-1")

	require.Equal(t, "/Organization/School", e.Type)
	assert.Equal(t, "/Organization/School", e.OriginCode.Type)
}

func TestBuildEntity_OmitsEmptyFields(t *testing.T) {
	cfg = &config.Config{}

	e := buildEntity("Acme", "", "", "cli", "")

	_, hasWebsite := e.Fields["organization.website"]
	assert.False(t, hasWebsite)
}
