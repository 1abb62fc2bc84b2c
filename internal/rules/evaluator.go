package rules

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// AttributeSource supplies resolved attribute values for catalog entries.
// A source that cannot supply an attribute returns an error; the evaluator
// degrades that comparison to false instead of aborting.
type AttributeSource interface {
	GetAttribute(ctx context.Context, item MediaItem, entry *CatalogEntry) (Value, error)
}

// ComparisonResult records one comparison performed during evaluation.
type ComparisonResult struct {
	FirstValueName  string `json:"firstValueName"`
	FirstValue      any    `json:"firstValue"`
	SecondValueName string `json:"secondValueName"`
	SecondValue     any    `json:"secondValue"`
	Operator        string `json:"operator,omitempty"`
	Result          bool   `json:"result"`
}

// SectionResult is the outcome of one section.
type SectionResult struct {
	ID     int                `json:"id"`
	Result bool               `json:"result"`
	Rules  []ComparisonResult `json:"ruleResults"`
}

// MediaStatistics is the full audit trace of evaluating one media item
// against a rule group.
type MediaStatistics struct {
	MediaServerID string          `json:"mediaServerId"`
	Result        bool            `json:"result"`
	Sections      []SectionResult `json:"sectionResults"`
}

// Evaluator applies rule groups to media items.
type Evaluator struct {
	catalog *Catalog
	source  AttributeSource
	logger  *slog.Logger
	now     func() time.Time
}

// NewEvaluator creates an evaluator over the given catalog and attribute
// source.
func NewEvaluator(catalog *Catalog, source AttributeSource, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		catalog: catalog,
		source:  source,
		logger:  logger.With("component", "evaluator"),
		now:     time.Now,
	}
}

// Evaluate runs every rule of every section against one item. Sections
// combine with OR; rules within a section fold left to right using each
// rule's operator (AND when absent). Every comparison is recorded in the
// trace even when the outcome is already decided, so the audit trail is
// complete.
func (e *Evaluator) Evaluate(ctx context.Context, group *RuleGroup, item MediaItem) *MediaStatistics {
	stats := &MediaStatistics{MediaServerID: item.ID}
	for _, section := range group.Sections {
		sr := SectionResult{ID: section.ID}
		for i, rule := range section.Rules {
			cr := e.compare(ctx, group, item, rule)
			if i == 0 {
				sr.Result = cr.Result
			} else {
				op := OperatorAnd
				if rule.Operator != nil {
					op = *rule.Operator
				}
				if op == OperatorOr {
					sr.Result = sr.Result || cr.Result
				} else {
					sr.Result = sr.Result && cr.Result
				}
			}
			sr.Rules = append(sr.Rules, cr)
		}
		stats.Sections = append(stats.Sections, sr)
		stats.Result = stats.Result || sr.Result
	}
	return stats
}

// compare performs one comparison. Failures resolve to false, never error.
func (e *Evaluator) compare(ctx context.Context, group *RuleGroup, item MediaItem, rule Rule) ComparisonResult {
	cr := ComparisonResult{Operator: rule.Action.String()}

	entry, err := e.catalog.ResolveRef(rule.FirstValue)
	if err != nil {
		cr.FirstValueName = "unknown"
		e.logger.Warn("unknown first value attribute",
			"rule_group", group.Name,
			"item", item.ID,
			"application", rule.FirstValue.Application,
			"property", rule.FirstValue.Property)
		return cr
	}
	cr.FirstValueName = e.catalog.Identifier(entry)

	first, err := e.source.GetAttribute(ctx, item, entry)
	if err != nil {
		e.logger.Info("attribute unavailable, comparison resolves to false",
			"rule_group", group.Name,
			"item", item.ID,
			"attribute", cr.FirstValueName,
			"error", err)
		return cr
	}
	cr.FirstValue = first.Interface()

	second, name, ok := e.secondOperand(ctx, group, item, entry, rule)
	cr.SecondValueName = name
	if !ok {
		return cr
	}
	cr.SecondValue = second.Interface()

	cr.Result = e.apply(rule.Action, entry.Type, first, second)
	return cr
}

// secondOperand resolves the rule's second operand from either another
// attribute or a literal.
func (e *Evaluator) secondOperand(ctx context.Context, group *RuleGroup, item MediaItem, entry *CatalogEntry, rule Rule) (Value, string, bool) {
	switch {
	case rule.LastValue != nil:
		last, err := e.catalog.ResolveRef(*rule.LastValue)
		if err != nil {
			e.logger.Warn("unknown second value attribute",
				"rule_group", group.Name,
				"item", item.ID,
				"application", rule.LastValue.Application,
				"property", rule.LastValue.Property)
			return Value{}, "unknown", false
		}
		name := e.catalog.Identifier(last)
		v, err := e.source.GetAttribute(ctx, item, last)
		if err != nil {
			e.logger.Info("second attribute unavailable, comparison resolves to false",
				"rule_group", group.Name,
				"item", item.ID,
				"attribute", name,
				"error", err)
			return Value{}, name, false
		}
		return v, name, true
	case rule.CustomValue != nil:
		v, name, err := customOperand(entry, *rule.CustomValue)
		if err != nil {
			e.logger.Warn("invalid custom value",
				"rule_group", group.Name,
				"item", item.ID,
				"attribute", e.catalog.Identifier(entry),
				"error", err)
			return Value{}, rule.CustomValue.Value, false
		}
		return v, name, true
	default:
		// No-operand comparison: compare against the zero value.
		return Value{Kind: entry.Type}, "", true
	}
}

// apply evaluates one comparison with type-specific semantics.
func (e *Evaluator) apply(action Comparison, t ValueType, first, second Value) bool {
	switch t {
	case Number:
		return applyNumber(action, first.Number, second.Number)
	case Bool:
		switch action {
		case Equals:
			return first.Bool == second.Bool
		case NotEquals:
			return first.Bool != second.Bool
		}
		return false
	case Text:
		return applyText(action, first.Text, second.Text)
	case Date:
		return e.applyDate(action, first, second)
	case NumberList:
		return applyNumberList(action, first.NumberList, second)
	case TextList:
		return applyTextList(action, first.TextList, second)
	}
	return false
}

func applyNumber(action Comparison, first, second float64) bool {
	switch action {
	case Equals:
		return first == second
	case NotEquals:
		return first != second
	case GreaterThan:
		return first > second
	case LessThan:
		return first < second
	}
	return false
}

// applyText trims and compares case-insensitively. Contains is a substring
// match.
func applyText(action Comparison, first, second string) bool {
	a := strings.ToLower(strings.TrimSpace(first))
	b := strings.ToLower(strings.TrimSpace(second))
	switch action {
	case Equals:
		return a == b
	case NotEquals:
		return a != b
	case Contains:
		return strings.Contains(a, b)
	case NotContains:
		return !strings.Contains(a, b)
	}
	return false
}

// applyDate compares at day granularity for absolute comparisons. When the
// second operand is a number it holds a duration in seconds (day-count
// literal): GreaterThan / LessThan compare the item's age against it, and
// InLast / InNext test a window around now.
func (e *Evaluator) applyDate(action Comparison, first, second Value) bool {
	if first.Time.IsZero() {
		return false
	}
	if second.Kind == Number {
		window := time.Duration(second.Number) * time.Second
		now := e.now()
		switch action {
		case GreaterThan, Before:
			return now.Sub(first.Time) > window
		case LessThan, After, InLast:
			return now.Sub(first.Time) >= 0 && now.Sub(first.Time) < window
		case InNext:
			return first.Time.After(now) && first.Time.Sub(now) < window
		}
		return false
	}

	a := dayOf(first.Time)
	b := dayOf(second.Time)
	switch action {
	case Equals:
		return a.Equal(b)
	case NotEquals:
		return !a.Equal(b)
	case Before, LessThan:
		return a.Before(b)
	case After, GreaterThan:
		return a.After(b)
	}
	return false
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// List comparisons are element containment.
func applyNumberList(action Comparison, list []float64, second Value) bool {
	found := false
	for _, n := range list {
		if n == second.Number {
			found = true
			break
		}
	}
	switch action {
	case Contains, Equals:
		return found
	case NotContains, NotEquals:
		return !found
	}
	return false
}

func applyTextList(action Comparison, list []string, second Value) bool {
	found := false
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(second.Text)) {
			found = true
			break
		}
	}
	switch action {
	case Contains, Equals:
		return found
	case NotContains, NotEquals:
		return !found
	}
	return false
}
