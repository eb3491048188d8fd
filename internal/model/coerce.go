package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CoercionWarning reports a record that could not be brought into typed form.
// It is recovered locally: the record is dropped and the load continues.
type CoercionWarning struct {
	Date   string
	Field  string
	Reason string
}

func (w *CoercionWarning) Error() string {
	if w.Date == "" {
		return fmt.Sprintf("record dropped: %s: %s", w.Field, w.Reason)
	}
	return fmt.Sprintf("record %s dropped: %s: %s", w.Date, w.Field, w.Reason)
}

// Coerce converts a raw upstream record into a Record.
func Coerce(raw RawRecord) (Record, error) {
	rec := Record{
		Date:             raw.Date,
		Symbol:           raw.Symbol,
		ReportedCurrency: raw.ReportedCurrency,
		FillingDate:      raw.FillingDate,
		Period:           raw.Period,
	}

	year, err := yearOf(raw.Date)
	if err != nil {
		return Record{}, &CoercionWarning{Date: raw.Date, Field: "date", Reason: err.Error()}
	}
	rec.Year = year

	amounts := []struct {
		name string
		raw  json.RawMessage
		dst  *int64
	}{
		{"revenue", raw.Revenue, &rec.Revenue},
		{"netIncome", raw.NetIncome, &rec.NetIncome},
		{"grossProfit", raw.GrossProfit, &rec.GrossProfit},
		{"operatingIncome", raw.OperatingIncome, &rec.OperatingIncome},
	}
	for _, a := range amounts {
		d, _, err := parseNumber(a.raw)
		if err != nil {
			return Record{}, &CoercionWarning{Date: raw.Date, Field: a.name, Reason: err.Error()}
		}
		floor, ceil, over := IntSpan(d)
		if over != 0 {
			return Record{}, &CoercionWarning{Date: raw.Date, Field: a.name, Reason: "out of range"}
		}
		// Truncate toward zero.
		*a.dst = floor
		if d.Sign() < 0 {
			*a.dst = ceil
		}
	}

	_, text, err := parseNumber(raw.EPS)
	if err != nil {
		return Record{}, &CoercionWarning{Date: raw.Date, Field: "eps", Reason: err.Error()}
	}
	f, err := strconv.ParseFloat(text, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Record{}, &CoercionWarning{Date: raw.Date, Field: "eps", Reason: "not finite"}
	}
	if err != nil {
		return Record{}, &CoercionWarning{Date: raw.Date, Field: "eps", Reason: "not a number"}
	}
	rec.EPS = f

	return rec, nil
}

// Ingest decodes and coerces upstream elements. Elements that fail are
// logged and skipped; the survivors keep their input order.
func Ingest(elems []json.RawMessage, logger *zap.Logger) (records []Record, dropped int) {
	records = make([]Record, 0, len(elems))
	for i, elem := range elems {
		var raw RawRecord
		if err := json.Unmarshal(elem, &raw); err != nil {
			dropped++
			logger.Warn("record dropped",
				zap.Int("index", i),
				zap.Error(&CoercionWarning{Field: "record", Reason: err.Error()}))
			continue
		}
		rec, err := Coerce(raw)
		if err != nil {
			dropped++
			logger.Warn("record dropped", zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func yearOf(date string) (int, error) {
	if len(date) < 4 {
		return 0, fmt.Errorf("malformed date %q", date)
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year < 0 {
		return 0, fmt.Errorf("malformed date %q", date)
	}
	return year, nil
}

// parseNumber accepts a JSON number or a JSON string holding a decimal number.
// It returns the parsed value along with its text form.
func parseNumber(raw json.RawMessage) (decimal.Decimal, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Decimal{}, "", fmt.Errorf("missing")
	}

	text := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Decimal{}, "", fmt.Errorf("bad string: %w", err)
		}
		text = strings.TrimSpace(s)
	} else if trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9') {
		return decimal.Decimal{}, "", fmt.Errorf("not a number: %s", text)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("not a number: %q", text)
	}
	return d, text, nil
}
