package enrich

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/entityforge/enrich-cli/internal/model"
	"github.com/entityforge/enrich-cli/pkg/duckduckgo"
)

// Default vocabulary keys read from the entity when no override is
// configured.
const (
	DefaultOrgNameKey = "organization.name"
	DefaultWebsiteKey = "organization.website"
)

// CandidateConfig holds the connector's per-installation settings: which
// entity type to accept and which vocabulary keys to read names and websites
// from. Empty fields fall back to the defaults.
type CandidateConfig struct {
	AcceptedEntityType string `yaml:"accepted_entity_type" mapstructure:"accepted_entity_type"`
	OrgNameKey         string `yaml:"org_name_key" mapstructure:"org_name_key"`
	WebsiteKey         string `yaml:"website_key" mapstructure:"website_key"`

	// FilterPath optionally points at a YAML stopword file extending the
	// built-in generic-name filter.
	FilterPath string `yaml:"filter_path" mapstructure:"filter_path"`
}

// Extractor builds the ordered set of search candidates for an entity.
type Extractor struct {
	cfg    CandidateConfig
	filter NameFilter
}

// NewExtractor creates an Extractor. A nil filter falls back to the default
// generic-name filter.
func NewExtractor(cfg CandidateConfig, filter NameFilter) *Extractor {
	if filter == nil {
		filter = DefaultNameFilter()
	}
	return &Extractor{cfg: cfg, filter: filter}
}

// Candidates returns the search candidates for the entity, name candidates
// first and website/host candidates second, each population deduplicated in
// insertion order. Entities whose type does not match the accepted type (or
// a subtype of it) yield no candidates. Candidates already covered by a
// prior query result are excluded.
func (e *Extractor) Candidates(entity *model.Entity, prior []*duckduckgo.SearchResult) []model.SearchCandidate {
	accepted := e.cfg.AcceptedEntityType
	if strings.TrimSpace(accepted) == "" {
		accepted = model.DefaultEntityType
	}
	if !model.TypeIs(entity.Type, accepted) {
		return nil
	}

	// Only results carrying an infobox count as prior coverage.
	usable := prior[:0:0]
	for _, r := range prior {
		if r.Usable() {
			usable = append(usable, r)
		}
	}

	nameKey := e.cfg.OrgNameKey
	if strings.TrimSpace(nameKey) == "" {
		nameKey = DefaultOrgNameKey
	}
	websiteKey := e.cfg.WebsiteKey
	if strings.TrimSpace(websiteKey) == "" {
		websiteKey = DefaultWebsiteKey
	}

	var out []model.SearchCandidate

	seen := map[string]struct{}{}
	for _, raw := range entity.Values(nameKey) {
		name := NormalizeName(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if !e.filter.Acceptable(name) {
			continue
		}
		if coveredByIdentifier(usable, name) {
			continue
		}
		out = append(out, model.SearchCandidate{Value: name, Kind: model.CandidateName})
	}

	seen = map[string]struct{}{}
	for _, raw := range entity.Values(websiteKey) {
		host, ok := hostCandidate(raw)
		if !ok {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}

		if coveredByResultURL(usable, host) {
			continue
		}
		out = append(out, model.SearchCandidate{Value: host, Kind: model.CandidateWebsite})
	}

	return out
}

// Covered reports whether the candidate is already represented by one of the
// prior results, using the same rules as extraction: the infobox primary
// identifier for names, result-URL substring matching for websites.
func Covered(cand model.SearchCandidate, prior []*duckduckgo.SearchResult) bool {
	usable := prior[:0:0]
	for _, r := range prior {
		if r.Usable() {
			usable = append(usable, r)
		}
	}
	if cand.Kind == model.CandidateName {
		return coveredByIdentifier(usable, cand.Value)
	}
	return coveredByResultURL(usable, cand.Value)
}

func coveredByIdentifier(results []*duckduckgo.SearchResult, name string) bool {
	for _, r := range results {
		if id := r.PrimaryIdentifier(); id != "" && strings.EqualFold(id, name) {
			return true
		}
	}
	return false
}

func coveredByResultURL(results []*duckduckgo.SearchResult, host string) bool {
	for _, r := range results {
		for _, u := range r.ResultURLs() {
			if strings.Contains(u, host) {
				return true
			}
		}
	}
	return false
}

// bareDomainRe matches scheme-less domain names like "acme.com".
var bareDomainRe = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// hostCandidate turns a raw website value into a query host: absolute URIs
// contribute their lower-cased host, bare domain names pass through as-is,
// everything else is dropped silently.
func hostCandidate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return strings.ToLower(u.Hostname()), true
	}

	if bareDomainRe.MatchString(raw) {
		return raw, true
	}

	return "", false
}
