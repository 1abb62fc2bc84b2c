package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// The portable rule document. Rules reference properties by catalog
// identifier so documents survive moves between installations.
type ruleDocument struct {
	MediaType string            `yaml:"mediaType"`
	Rules     []sectionDocument `yaml:"rules"`
}

type sectionDocument struct {
	Section int            `yaml:"section"`
	Rules   []ruleDocEntry `yaml:"rules"`
}

type ruleDocEntry struct {
	Operator    string          `yaml:"operator,omitempty"`
	Action      string          `yaml:"action"`
	FirstValue  string          `yaml:"firstValue"`
	LastValue   string          `yaml:"lastValue,omitempty"`
	CustomValue *customValueDoc `yaml:"customValue,omitempty"`
}

type customValueDoc struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// Codec converts rule sections to and from the portable document format.
type Codec struct {
	catalog *Catalog
}

// NewCodec creates a codec over the given catalog.
func NewCodec(catalog *Catalog) *Codec {
	return &Codec{catalog: catalog}
}

// Encode serializes sections to a rule document. Raw catalog pairs become
// identifiers and literal values are normalized: booleans render as
// true/false and day counts stored as seconds render as day counts.
func (c *Codec) Encode(sections []Section, mediaType MediaType) ([]byte, error) {
	doc := ruleDocument{MediaType: string(mediaType)}
	for _, section := range sections {
		sd := sectionDocument{Section: section.ID}
		for _, rule := range section.Rules {
			entry, err := c.catalog.ResolveRef(rule.FirstValue)
			if err != nil {
				return nil, fmt.Errorf("encode rule: %w", err)
			}
			re := ruleDocEntry{
				Action:     rule.Action.String(),
				FirstValue: c.catalog.Identifier(entry),
			}
			if rule.Operator != nil {
				re.Operator = rule.Operator.String()
			}
			if rule.LastValue != nil {
				last, err := c.catalog.ResolveRef(*rule.LastValue)
				if err != nil {
					return nil, fmt.Errorf("encode rule: %w", err)
				}
				re.LastValue = c.catalog.Identifier(last)
			}
			if rule.CustomValue != nil {
				cv, err := encodeCustomValue(entry, *rule.CustomValue)
				if err != nil {
					return nil, fmt.Errorf("encode rule %s: %w", re.FirstValue, err)
				}
				re.CustomValue = cv
			}
			sd.Rules = append(sd.Rules, re)
		}
		doc.Rules = append(doc.Rules, sd)
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal rule document: %w", err)
	}
	return out, nil
}

func encodeCustomValue(entry *CatalogEntry, cv CustomValue) (*customValueDoc, error) {
	cv = NormalizeCustomValue(entry, cv)
	switch cv.Type {
	case CustomDays:
		secs, err := cast.ToInt64E(strings.TrimSpace(cv.Value))
		if err != nil {
			return nil, fmt.Errorf("parse day count %q: %w", cv.Value, err)
		}
		return &customValueDoc{
			Type:  CustomDays.String(),
			Value: strconv.FormatInt(secs/secondsPerDay, 10),
		}, nil
	case CustomBool:
		b, err := cast.ToBoolE(strings.TrimSpace(cv.Value))
		if err != nil {
			return nil, fmt.Errorf("parse bool %q: %w", cv.Value, err)
		}
		return &customValueDoc{Type: CustomBool.String(), Value: strconv.FormatBool(b)}, nil
	default:
		return &customValueDoc{Type: cv.Type.String(), Value: cv.Value}, nil
	}
}

// Decode parses a rule document and resolves its identifiers against the
// catalog. The media type check runs before any rule is parsed, since rule
// validity is media-type dependent. An unknown identifier rejects the whole
// document; there is no partial import.
func (c *Codec) Decode(data []byte, expected MediaType) ([]Section, error) {
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule document: %w", err)
	}

	if !strings.EqualFold(doc.MediaType, string(expected)) {
		return nil, fmt.Errorf("document is for %q, importing into %q: %w",
			doc.MediaType, expected, ErrIncompatibleMediaType)
	}

	var sections []Section
	for _, sd := range doc.Rules {
		section := Section{ID: sd.Section}
		for _, re := range sd.Rules {
			rule, err := c.decodeRule(re, expected)
			if err != nil {
				return nil, err
			}
			section.Rules = append(section.Rules, rule)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func (c *Codec) decodeRule(re ruleDocEntry, mediaType MediaType) (Rule, error) {
	var rule Rule

	action, err := ParseComparison(re.Action)
	if err != nil {
		return rule, fmt.Errorf("decode rule %s: %w", re.FirstValue, err)
	}
	rule.Action = action

	if re.Operator != "" {
		op, err := ParseOperator(re.Operator)
		if err != nil {
			return rule, fmt.Errorf("decode rule %s: %w", re.FirstValue, err)
		}
		rule.Operator = &op
	}

	entry, err := c.catalog.ResolveIdentifier(re.FirstValue)
	if err != nil {
		return rule, fmt.Errorf("decode rule: %w", err)
	}
	if !entry.AppliesTo(mediaType) {
		return rule, fmt.Errorf("property %q does not apply to %s: %w",
			re.FirstValue, mediaType, ErrIncompatibleMediaType)
	}
	rule.FirstValue = PropRef{Application: entry.Application, Property: entry.Property}

	if re.LastValue != "" && re.CustomValue != nil {
		return rule, fmt.Errorf("rule %s has both lastValue and customValue", re.FirstValue)
	}

	if re.LastValue != "" {
		last, err := c.catalog.ResolveIdentifier(re.LastValue)
		if err != nil {
			return rule, fmt.Errorf("decode rule: %w", err)
		}
		if !last.AppliesTo(mediaType) {
			return rule, fmt.Errorf("property %q does not apply to %s: %w",
				re.LastValue, mediaType, ErrIncompatibleMediaType)
		}
		rule.LastValue = &PropRef{Application: last.Application, Property: last.Property}
	}

	if re.CustomValue != nil {
		cv, err := decodeCustomValue(re.CustomValue)
		if err != nil {
			return rule, fmt.Errorf("decode rule %s: %w", re.FirstValue, err)
		}
		rule.CustomValue = cv
	}

	return rule, nil
}

func decodeCustomValue(doc *customValueDoc) (*CustomValue, error) {
	t, err := ParseCustomValueType(doc.Type)
	if err != nil {
		return nil, err
	}
	switch t {
	case CustomDays:
		// Documents carry a day count; internally day counts are seconds.
		days, err := cast.ToInt64E(strings.TrimSpace(doc.Value))
		if err != nil || days < 0 {
			return nil, fmt.Errorf("invalid day count %q", doc.Value)
		}
		return &CustomValue{
			Type:  CustomDays,
			Value: strconv.FormatInt(days*secondsPerDay, 10),
		}, nil
	case CustomBool:
		b, err := cast.ToBoolE(strings.TrimSpace(doc.Value))
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", doc.Value)
		}
		return &CustomValue{Type: CustomBool, Value: strconv.FormatBool(b)}, nil
	default:
		return &CustomValue{Type: t, Value: doc.Value}, nil
	}
}
