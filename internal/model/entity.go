package model

import (
	"fmt"
	"strings"
)

// DefaultEntityType is the entity type enriched when no override is configured.
const DefaultEntityType = "/Organization"

// EntityCode identifies an entity within an origin system.
type EntityCode struct {
	Type   string `json:"type"`
	Origin string `json:"origin"`
	Value  string `json:"value"`
}

func (c EntityCode) String() string {
	return fmt.Sprintf("%s#%s:%s", c.Type, c.Origin, c.Value)
}

// IsZero reports whether the code carries no identity.
func (c EntityCode) IsZero() bool {
	return c.Origin == "" && c.Value == ""
}

// Entity is a golden-record business object from the host platform's graph.
// Fields maps vocabulary key names to the sets of raw values known for them.
type Entity struct {
	Type       string              `json:"type"`
	Name       string              `json:"name"`
	OriginCode EntityCode          `json:"origin_code"`
	Fields     map[string][]string `json:"fields,omitempty"`
}

// Values returns the field values stored under the given vocabulary key.
func (e *Entity) Values(key string) []string {
	if e.Fields == nil {
		return nil
	}
	return e.Fields[key]
}

// TypeIs reports whether entityType equals accepted or is a subtype of it.
// Types form a slash-delimited hierarchy: "/Organization/School" is a
// subtype of "/Organization".
func TypeIs(entityType, accepted string) bool {
	if entityType == "" || accepted == "" {
		return false
	}
	if strings.EqualFold(entityType, accepted) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(entityType), strings.ToLower(accepted)+"/")
}
