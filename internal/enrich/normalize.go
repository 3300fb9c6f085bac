package enrich

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/entityforge/enrich-cli/pkg/duckduckgo"
)

// Vocabulary namespaces for normalized properties.
const (
	VocabPrefix        = "duckDuckGo.organization"
	InfoboxPrefix      = VocabPrefix + ".infobox"
	RelatedTopicPrefix = VocabPrefix + ".relatedTopics"

	// maxRelatedTopics bounds the dynamic related-topic key space; the
	// display layer pre-declares the same range.
	maxRelatedTopics = 50
)

// Property is one normalized key/value pair. DisplayName and GroupName are
// set only for dynamic (infobox / related-topic) keys, where they drive
// vocabulary key registration; fixed organization keys leave them empty.
type Property struct {
	Key         string
	Value       string
	DisplayName string
	GroupName   string
}

// Dynamic reports whether the property requires on-the-fly schema
// registration before its value is meaningful.
func (p Property) Dynamic() bool {
	return p.DisplayName != ""
}

// Normalize flattens one search result into namespaced properties. The output
// is a pure function of the input: same result, same keys, same values, same
// order. Callers must check IsCompany/Usable before normalizing.
func Normalize(res *duckduckgo.SearchResult) []Property {
	b := &propertyBuilder{index: map[string]int{}}

	b.set(VocabPrefix+".abstract", res.Abstract)
	b.set(VocabPrefix+".abstractSource", res.AbstractSource)
	b.set(VocabPrefix+".abstractText", res.AbstractText)
	b.set(VocabPrefix+".abstractUrl", res.AbstractURL)
	b.set(VocabPrefix+".answer", res.Answer)
	b.set(VocabPrefix+".answerType", res.AnswerType)
	b.set(VocabPrefix+".definition", res.Definition)
	b.set(VocabPrefix+".definitionSource", res.DefinitionSource)
	b.set(VocabPrefix+".definitionUrl", res.DefinitionURL)
	b.set(VocabPrefix+".entity", res.Entity)
	b.set(VocabPrefix+".heading", res.Heading)
	b.setInt(VocabPrefix+".imageHeight", res.ImageHeight)
	b.set(VocabPrefix+".image", res.Image)
	b.setInt(VocabPrefix+".imageIsLogo", res.ImageIsLogo)
	b.setInt(VocabPrefix+".imageWidth", res.ImageWidth)
	b.set(VocabPrefix+".redirect", res.Redirect)
	b.set(VocabPrefix+".type", res.Type)
	b.set(VocabPrefix+".websites", strings.Join(res.ResultURLs(), ";"))

	normalizeRelatedTopics(b, res)
	normalizeInfobox(b, res)

	return b.props
}

func normalizeRelatedTopics(b *propertyBuilder, res *duckduckgo.SearchResult) {
	for i, topic := range res.RelatedTopics {
		if i >= maxRelatedTopics {
			zap.L().Debug("related topics truncated",
				zap.Int("total", len(res.RelatedTopics)),
				zap.Int("bound", maxRelatedTopics))
			break
		}

		prefix := fmt.Sprintf("%s.%d.", RelatedTopicPrefix, i)
		if topic.FirstURL != "" {
			b.setDynamic(prefix+"firstUrl", topic.FirstURL,
				fmt.Sprintf("Related Topics %d Url", i), relatedTopicsGroup)
		}
		if topic.Text != "" {
			b.setDynamic(prefix+"text", topic.Text,
				fmt.Sprintf("Related Topics %d Text", i), relatedTopicsGroup)
		}
		if topic.Icon != nil && topic.Icon.URL != "" {
			b.setDynamic(prefix+"icon", topic.Icon.URL,
				fmt.Sprintf("Related Topics %d Icon", i), relatedTopicsGroup)
		}
	}
}

func normalizeInfobox(b *propertyBuilder, res *duckduckgo.SearchResult) {
	if res.Infobox == nil {
		return
	}
	for _, content := range res.Infobox.Content {
		label := FormatLabelToProperty(content.Label)
		if label == "" {
			continue
		}
		// Colliding labels overwrite; last entry in list order wins.
		b.setDynamic(InfoboxPrefix+"."+label, content.ValueString(),
			"Infobox-"+label, infoboxGroup)
	}
}

const (
	infoboxGroup       = "DuckDuckGo Organization Infobox"
	relatedTopicsGroup = "DuckDuckGo Organization Related Topics"
)

// FormatLabelToProperty converts a free-form infobox label into a property
// name: first whitespace-separated token lowercased, remaining tokens with
// their first letter capitalized, concatenated without separators
// ("Company type" -> "companyType"). Blank labels yield "".
func FormatLabelToProperty(label string) string {
	parts := strings.Fields(label)
	if len(parts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(strings.ToLower(parts[0]))
	for _, part := range parts[1:] {
		sb.WriteString(firstUpper(part))
	}
	return sb.String()
}

func firstUpper(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// propertyBuilder accumulates properties in insertion order with
// overwrite-on-collision semantics.
type propertyBuilder struct {
	props []Property
	index map[string]int
}

func (b *propertyBuilder) set(key, value string) {
	b.add(Property{Key: key, Value: value})
}

func (b *propertyBuilder) setInt(key string, value *int) {
	if value == nil {
		return
	}
	b.add(Property{Key: key, Value: strconv.Itoa(*value)})
}

func (b *propertyBuilder) setDynamic(key, value, displayName, groupName string) {
	b.add(Property{Key: key, Value: value, DisplayName: displayName, GroupName: groupName})
}

func (b *propertyBuilder) add(p Property) {
	// Absent/empty values collapse to an omitted property, never an
	// empty-string property.
	if p.Value == "" {
		return
	}
	if i, ok := b.index[p.Key]; ok {
		b.props[i] = p
		return
	}
	b.index[p.Key] = len(b.props)
	b.props = append(b.props, p)
}
