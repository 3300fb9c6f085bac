package enrich

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FilterConfig customizes the generic-name filter. Stopwords are matched
// case-insensitively against whole normalized names.
type FilterConfig struct {
	Stopwords []string `yaml:"stopwords"`

	// Replace drops the built-in stoplist instead of extending it.
	Replace bool `yaml:"replace"`
}

// LoadNameFilter reads a filter config from a YAML file and builds the
// corresponding NameFilter.
func LoadNameFilter(path string) (NameFilter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read filter config %s", path)
	}

	// The YAML has a top-level "filter" key
	var wrapper struct {
		Filter FilterConfig `yaml:"filter"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "enrich: parse filter config")
	}

	return NewNameFilter(wrapper.Filter), nil
}

// NewNameFilter builds a NameFilter from the config. An empty config yields
// the default filter.
func NewNameFilter(cfg FilterConfig) NameFilter {
	base := &genericNameFilter{stoplist: map[string]struct{}{}}
	if !cfg.Replace {
		base = DefaultNameFilter().(*genericNameFilter)
	}
	for _, w := range cfg.Stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			base.stoplist[w] = struct{}{}
		}
	}
	return base
}
