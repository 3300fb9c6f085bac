package duckduckgo

import (
	"encoding/json"
	"fmt"
)

// SearchResult is the parsed Instant Answer API payload. The shape is only
// partially stable: top-level fields are fixed, the infobox content is an
// arbitrary label/value list that varies per query.
type SearchResult struct {
	Abstract       string `json:"Abstract"`
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`

	Answer     string `json:"Answer"`
	AnswerType string `json:"AnswerType"`

	Definition       string `json:"Definition"`
	DefinitionSource string `json:"DefinitionSource"`
	DefinitionURL    string `json:"DefinitionURL"`

	Entity   string `json:"Entity"`
	Heading  string `json:"Heading"`
	Redirect string `json:"Redirect"`
	Type     string `json:"Type"`

	Image       string `json:"Image"`
	ImageHeight *int   `json:"ImageHeight"`
	ImageWidth  *int   `json:"ImageWidth"`
	ImageIsLogo *int   `json:"ImageIsLogo"`

	Infobox       *Infobox       `json:"Infobox"`
	RelatedTopics []RelatedTopic `json:"RelatedTopics"`
	Results       []Result       `json:"Results"`
}

// Infobox is the semi-structured summary block for a matched topic.
type Infobox struct {
	Meta    []InfoboxMeta    `json:"meta"`
	Content []InfoboxContent `json:"content"`
}

// InfoboxMeta carries infobox metadata; the first entry's value is the
// primary identifier of the matched topic.
type InfoboxMeta struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	DataType string `json:"data_type"`
}

// InfoboxContent is one label/value pair of the infobox. Value is free-form:
// usually a string, occasionally a nested structure.
type InfoboxContent struct {
	Label     string `json:"label"`
	Value     any    `json:"value"`
	DataType  string `json:"data_type"`
	SortOrder string `json:"sort_order"`
}

// ValueString renders the content value as a string. Nested structures are
// rendered as compact JSON so the rendering is deterministic.
func (c InfoboxContent) ValueString() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%v", v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// RelatedTopic is a secondary result entry bundled with the primary result.
type RelatedTopic struct {
	Text     string `json:"Text"`
	Result   string `json:"Result"`
	FirstURL string `json:"FirstURL"`
	Icon     *Icon  `json:"Icon"`
}

// Result is a primary search hit.
type Result struct {
	Text     string `json:"Text"`
	Result   string `json:"Result"`
	FirstURL string `json:"FirstURL"`
	Icon     *Icon  `json:"Icon"`
}

// Icon is an image reference attached to a result or related topic.
type Icon struct {
	URL    string `json:"URL"`
	Height any    `json:"Height"`
	Width  any    `json:"Width"`
}

// Usable reports whether the result carries an infobox. Results without one
// are noise and never produce clues.
func (r *SearchResult) Usable() bool {
	return r != nil && r.Infobox != nil
}

// IsCompany reports whether the result identifies an organization.
func (r *SearchResult) IsCompany() bool {
	return r != nil && r.Entity == "company" && r.Heading != ""
}

// PrimaryIdentifier returns the first infobox meta value, the remote's
// canonical name for the matched topic. Empty when the meta list is missing
// or empty; callers must treat that as "no identifier", not an error.
func (r *SearchResult) PrimaryIdentifier() string {
	if r == nil || r.Infobox == nil || len(r.Infobox.Meta) == 0 {
		return ""
	}
	return r.Infobox.Meta[0].Value
}

// ResultURLs returns the non-empty FirstURL values in list order.
func (r *SearchResult) ResultURLs() []string {
	if r == nil {
		return nil
	}
	urls := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.FirstURL != "" {
			urls = append(urls, res.FirstURL)
		}
	}
	return urls
}
