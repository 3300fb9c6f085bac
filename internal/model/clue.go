package model

import "github.com/google/uuid"

// EntityMetadata carries the structured payload of a clue: identification
// plus the namespaced property mapping produced by response normalization.
type EntityMetadata struct {
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	URI         string            `json:"uri,omitempty"`
	OriginCode  EntityCode        `json:"origin_code"`
	Codes       []EntityCode      `json:"codes,omitempty"`
	Properties  map[string]string `json:"properties"`
}

// Clue is a proposed incremental update to an entity, submitted to the host
// platform's ingestion pipeline. Ownership transfers to the pipeline
// immediately after construction.
type Clue struct {
	ID               uuid.UUID      `json:"id"`
	OriginEntityCode EntityCode     `json:"origin_entity_code"`
	ProviderID       uuid.UUID      `json:"provider_id"`
	Data             EntityMetadata `json:"data"`

	// PreviewImage holds downloaded logo bytes when the search result
	// flagged its image as a logo. Best effort; may be nil.
	PreviewImage []byte `json:"-"`
}
