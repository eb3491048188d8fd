package model

import "encoding/json"

// Record is one fiscal period of an income statement.
// Monetary fields are whole currency units.
type Record struct {
	Date             string  `json:"date"`
	Year             int     `json:"year"`
	Symbol           string  `json:"symbol,omitempty"`
	ReportedCurrency string  `json:"reportedCurrency,omitempty"`
	FillingDate      string  `json:"fillingDate,omitempty"`
	Period           string  `json:"period,omitempty"`
	Revenue          int64   `json:"revenue"`
	NetIncome        int64   `json:"netIncome"`
	GrossProfit      int64   `json:"grossProfit"`
	OperatingIncome  int64   `json:"operatingIncome"`
	EPS              float64 `json:"eps"`
}

// RawRecord is the upstream JSON shape before coercion. Numeric fields may be
// JSON numbers or numeric strings, so they are kept raw.
type RawRecord struct {
	Date             string          `json:"date"`
	Symbol           string          `json:"symbol"`
	ReportedCurrency string          `json:"reportedCurrency"`
	FillingDate      string          `json:"fillingDate"`
	Period           string          `json:"period"`
	Revenue          json.RawMessage `json:"revenue"`
	NetIncome        json.RawMessage `json:"netIncome"`
	GrossProfit      json.RawMessage `json:"grossProfit"`
	OperatingIncome  json.RawMessage `json:"operatingIncome"`
	EPS              json.RawMessage `json:"eps"`
}
