package enrich

import "github.com/google/uuid"

// Fixed provider metadata, carried as immutable values rather than
// process-wide mutable state.
const ProviderName = "Duck Duck Go"

// ProviderID identifies this connector in clue origin metadata.
var ProviderID = uuid.MustParse("c7ddbea4-d5a2-4f25-b2a0-ebfd36d2e8d6")
