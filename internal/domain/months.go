package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MonthCount is fixed: every year series carries exactly 12 slots.
const MonthCount = 12

// MonthSeries holds one value per calendar month, index 0 = January.
type MonthSeries [MonthCount]float64

// Set stores a value by 1-based month, clamping out-of-range months into
// the valid range the same way the legacy worker did.
func (s *MonthSeries) Set(month int, value float64) {
	if month < 1 {
		month = 1
	}
	if month > MonthCount {
		month = MonthCount
	}
	s[month-1] = value
}

// Total sums all 12 months.
func (s MonthSeries) Total() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Average is the annualized average: always total/12, even when fewer
// months carry data.
func (s MonthSeries) Average() float64 {
	return s.Total() / MonthCount
}

// AbsenceSeries holds the normalized absence code per month ("" when none).
type AbsenceSeries [MonthCount]string

// Absence flag codes: maternity leave, parental leave, collectively-agreed
// leave. Any other code is treated as "no flag".
const (
	AbsenceMaternity  = "MS"
	AbsenceParental   = "EZ"
	AbsenceCollective = "KOL"
)

// NormalizeAbsenceCode trims and uppercases a submitted code and returns it
// only when it is one of the recognized flags.
func NormalizeAbsenceCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	switch code {
	case AbsenceMaternity, AbsenceParental, AbsenceCollective:
		return code
	}
	return ""
}

// NormalizeNumber applies the lenient coercion policy for staffing values:
// the first comma is accepted as decimal separator, trailing garbage after a
// numeric prefix is ignored, and anything else becomes 0. Parse failures
// are never surfaced as errors.
func NormalizeNumber(raw string) float64 {
	cleaned := strings.TrimSpace(strings.Replace(raw, ",", ".", 1))
	if cleaned == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return v
	}
	if v, ok := leadingFloat(cleaned); ok {
		return v
	}
	return 0
}

// leadingFloat parses the longest plain numeric prefix of s.
func leadingFloat(s string) (float64, bool) {
	end := len(s)
	dot := false
scan:
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case (c == '+' || c == '-') && i == 0:
		case c == '.' && !dot:
			dot = true
		default:
			end = i
			break scan
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	return v, err == nil
}

// FlexInt tolerates numbers or numeric strings; anything else decodes to 0.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64); err == nil {
			*f = FlexInt(v)
			return nil
		}
	}
	*f = 0
	return nil
}

// FlexID accepts an integral JSON number as a row id. Fresh rows arrive
// with client-generated string uids; those (and every other shape) decode
// to 0, which routes the save through the natural-key lookup.
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil && n == float64(int64(n)) {
		*f = FlexID(int64(n))
		return nil
	}
	*f = 0
	return nil
}

// FlexFloat is a JSON number that tolerates the shapes clients actually
// send: numbers, numeric strings with comma decimals, null, or garbage.
// Everything unparsable decodes to 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*f = FlexFloat(NormalizeNumber(str))
		return nil
	}
	*f = 0
	return nil
}
