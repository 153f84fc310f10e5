// Package jsonutil decodes model output that does not quite match its schema.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// models return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == math.Trunc(numVal) && math.Abs(numVal) < 1e15 {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return strconv.FormatFloat(numVal, 'g', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	return string(raw)
}

// String is a string field that also accepts a JSON number or boolean,
// e.g. a GPA of 3.8 or a QS ranking of 12.
type String string

// UnmarshalJSON implements json.Unmarshaler.
func (s *String) UnmarshalJSON(data []byte) error {
	*s = String(strings.TrimSpace(FlexibleStringValue(data)))
	return nil
}

// Strings is a list field that also accepts a single comma or semicolon
// separated string, e.g. "NLP; robotics" for research areas.
type Strings []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Strings) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err == nil {
		out := make([]string, 0, len(raws))
		for _, r := range raws {
			if v := strings.TrimSpace(FlexibleStringValue(r)); v != "" {
				out = append(out, v)
			}
		}
		*s = out
		return nil
	}

	*s = SplitList(FlexibleStringValue(data))
	return nil
}

// SplitList splits a free-text list on commas, semicolons and newlines,
// dropping blanks.
func SplitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '、' || r == '，'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Int is an integer field that also accepts numeric strings such as "85" or
// "85%" and rounds fractional values.
type Int int

// UnmarshalJSON implements json.Unmarshaler.
func (i *Int) UnmarshalJSON(data []byte) error {
	v := strings.TrimSpace(FlexibleStringValue(data))
	v = strings.TrimSuffix(v, "%")
	if v == "" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("jsonutil: %q is not a number", v)
	}
	*i = Int(math.Round(f))
	return nil
}
