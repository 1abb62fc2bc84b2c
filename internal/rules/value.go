package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// secondsPerDay is the legacy day-count encoding unit for custom values.
const secondsPerDay = 86400

// Value is one resolved media attribute value. Kind selects which field is
// populated.
type Value struct {
	Kind       ValueType
	Number     float64
	Text       string
	Bool       bool
	Time       time.Time
	NumberList []float64
	TextList   []string
}

func NumberValue(n float64) Value     { return Value{Kind: Number, Number: n} }
func TextValue(s string) Value        { return Value{Kind: Text, Text: s} }
func BoolValue(b bool) Value          { return Value{Kind: Bool, Bool: b} }
func DateValue(t time.Time) Value     { return Value{Kind: Date, Time: t} }
func NumberListValue(n []float64) Value {
	return Value{Kind: NumberList, NumberList: n}
}
func TextListValue(s []string) Value { return Value{Kind: TextList, TextList: s} }

// Interface returns the underlying value for audit traces.
func (v Value) Interface() any {
	switch v.Kind {
	case Number:
		return v.Number
	case Date:
		return v.Time
	case Text:
		return v.Text
	case Bool:
		return v.Bool
	case NumberList:
		return v.NumberList
	case TextList:
		return v.TextList
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case Date:
		return v.Time.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// NormalizeCustomValue applies the legacy day encoding heuristic: a plain
// number literal compared against a date property is a day count only when
// it is a positive multiple of 86400 seconds. Anything else is left alone.
// New documents should declare custom_days explicitly and skip the guess.
func NormalizeCustomValue(entry *CatalogEntry, cv CustomValue) CustomValue {
	if cv.Type != CustomNumber || entry.Type != Date {
		return cv
	}
	n, err := cast.ToInt64E(strings.TrimSpace(cv.Value))
	if err != nil || n <= 0 || n%secondsPerDay != 0 {
		return cv
	}
	return CustomValue{Type: CustomDays, Value: cv.Value}
}

// customOperand coerces a literal operand to a Value suitable for comparing
// against the given catalog entry. Day counts become a Number of seconds.
func customOperand(entry *CatalogEntry, cv CustomValue) (Value, string, error) {
	cv = NormalizeCustomValue(entry, cv)
	switch cv.Type {
	case CustomDays:
		secs, err := cast.ToFloat64E(strings.TrimSpace(cv.Value))
		if err != nil {
			return Value{}, "", fmt.Errorf("parse day count %q: %w", cv.Value, err)
		}
		name := fmt.Sprintf("%d days", int64(secs)/secondsPerDay)
		return NumberValue(secs), name, nil
	case CustomDate:
		t, err := time.Parse("2006-01-02", strings.TrimSpace(cv.Value))
		if err != nil {
			return Value{}, "", fmt.Errorf("parse date %q: %w", cv.Value, err)
		}
		return DateValue(t), cv.Value, nil
	case CustomBool:
		b, err := cast.ToBoolE(strings.TrimSpace(cv.Value))
		if err != nil {
			return Value{}, "", fmt.Errorf("parse bool %q: %w", cv.Value, err)
		}
		return BoolValue(b), fmt.Sprintf("%t", b), nil
	case CustomText:
		return TextValue(cv.Value), cv.Value, nil
	default:
		n, err := cast.ToFloat64E(strings.TrimSpace(cv.Value))
		if err != nil {
			return Value{}, "", fmt.Errorf("parse number %q: %w", cv.Value, err)
		}
		return NumberValue(n), cv.Value, nil
	}
}
