// Package rules implements the rule catalog, the rule evaluation engine, and
// the portable rule document codec.
package rules

import (
	"fmt"
	"time"
)

// MediaType identifies the kind of library a rule group applies to.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// ParseMediaType converts a string to a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case MediaTypeMovie, MediaTypeShow:
		return MediaType(s), nil
	}
	return "", fmt.Errorf("invalid media type %q", s)
}

// ValueType describes the type of a media attribute value.
type ValueType int

const (
	Number ValueType = iota
	Date
	Text
	Bool
	NumberList
	TextList
)

func (t ValueType) String() string {
	switch t {
	case Number:
		return "number"
	case Date:
		return "date"
	case Text:
		return "text"
	case Bool:
		return "boolean"
	case NumberList:
		return "numberList"
	case TextList:
		return "textList"
	}
	return fmt.Sprintf("valueType(%d)", int(t))
}

// Comparison is the kind of comparison a rule performs. Rules call this the
// rule "action"; it is unrelated to the enforcement action of the group.
type Comparison int

const (
	Equals Comparison = iota
	NotEquals
	Contains
	NotContains
	GreaterThan
	LessThan
	Before
	After
	InLast
	InNext
)

var comparisonNames = map[Comparison]string{
	Equals:      "equals",
	NotEquals:   "notEquals",
	Contains:    "contains",
	NotContains: "notContains",
	GreaterThan: "greaterThan",
	LessThan:    "lessThan",
	Before:      "before",
	After:       "after",
	InLast:      "inLast",
	InNext:      "inNext",
}

func (c Comparison) String() string {
	if s, ok := comparisonNames[c]; ok {
		return s
	}
	return fmt.Sprintf("comparison(%d)", int(c))
}

// ParseComparison converts a document action name to a Comparison.
func ParseComparison(s string) (Comparison, error) {
	for c, name := range comparisonNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid comparison %q", s)
}

// Operator combines a rule's result with the result accumulated so far in
// its section.
type Operator int

const (
	OperatorAnd Operator = iota
	OperatorOr
)

func (o Operator) String() string {
	if o == OperatorOr {
		return "or"
	}
	return "and"
}

// ParseOperator converts a document operator name to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "and":
		return OperatorAnd, nil
	case "or":
		return OperatorOr, nil
	}
	return 0, fmt.Errorf("invalid operator %q", s)
}

// EnforcementAction is what a rule group does with a matching item.
type EnforcementAction int

const (
	ActionDelete EnforcementAction = iota
	ActionExclude
	ActionAddToCollection
	ActionChangeQualityProfile
)

func (a EnforcementAction) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	case ActionExclude:
		return "exclude"
	case ActionAddToCollection:
		return "addToCollection"
	case ActionChangeQualityProfile:
		return "changeQualityProfile"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// PropRef identifies a catalog property by (application, property) pair.
type PropRef struct {
	Application int
	Property    int
}

// CustomValueType is the declared type of a literal rule operand.
type CustomValueType int

const (
	CustomNumber CustomValueType = iota
	CustomDays
	CustomDate
	CustomText
	CustomBool
)

var customValueTypeNames = map[CustomValueType]string{
	CustomNumber: "number",
	CustomDays:   "custom_days",
	CustomDate:   "date",
	CustomText:   "text",
	CustomBool:   "boolean",
}

func (t CustomValueType) String() string {
	if s, ok := customValueTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("customValueType(%d)", int(t))
}

// ParseCustomValueType converts a document type name to a CustomValueType.
// The legacy alias "bool" is accepted for boolean.
func ParseCustomValueType(s string) (CustomValueType, error) {
	if s == "bool" {
		return CustomBool, nil
	}
	for t, name := range customValueTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid custom value type %q", s)
}

// CustomValue is a literal operand used in place of a second attribute.
// Day counts are stored internally as seconds (CustomDays).
type CustomValue struct {
	Type  CustomValueType
	Value string
}

// Rule is one typed comparison between a media attribute and either another
// attribute (LastValue) or a literal (CustomValue). At most one of the two
// may be set; a rule with neither is a no-operand comparison.
type Rule struct {
	Operator    *Operator
	Action      Comparison
	FirstValue  PropRef
	LastValue   *PropRef
	CustomValue *CustomValue
}

// Validate checks the second-operand invariant.
func (r *Rule) Validate() error {
	if r.LastValue != nil && r.CustomValue != nil {
		return fmt.Errorf("rule has both lastValue and customValue")
	}
	return nil
}

// Section is an ordered sequence of rules combined left to right by each
// rule's operator. The first rule's operator is ignored.
type Section struct {
	ID    int
	Rules []Rule
}

// RuleGroup is a named, schedulable set of sections plus the enforcement
// action to take when an item matches. A group matches an item when any of
// its sections matches.
type RuleGroup struct {
	ID              int64
	Name            string
	Description     string
	MediaType       MediaType
	LibraryID       string
	IsActive        bool
	UseRules        bool
	Action          EnforcementAction
	Sections        []Section
	RadarrProfileID *int
	SonarrProfileID *int
	CronSchedule    string
	CollectionID    *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MediaItem is the minimal view of a media-server item the engine works on.
type MediaItem struct {
	ID      string // media server rating key
	Title   string
	Type    MediaType
	TMDBID  int64
	TVDBID  int64
	AddedAt time.Time
}
