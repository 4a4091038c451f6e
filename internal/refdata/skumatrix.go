// Package refdata loads the SKU matrix and sold-to location matrix
// reference tables and exposes the O(1)/sliding-window
// lookups the Label Data Builder depends on.
package refdata

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/norm"
	"github.com/wms-platform/labeltagctl/internal/obslog"
)

// minWindowLength is the shortest sliding window FindByPrtnum will try.
const minWindowLength = 5

// SkuMatrix answers lookups against the TBG SKU <-> Walmart item
// matrix. It is immutable after construction and safely shareable
// across a job.
type SkuMatrix struct {
	byTBGSKU      map[string]*domain.WalmartSkuMapping
	byWalmartItem map[string]*domain.WalmartSkuMapping
}

// LoadSkuMatrix reads the CSV file at path: header `TBG
// SKU#, WALMART ITEM#, Item Description, check`, blank lines and rows
// with fewer than two non-empty fields skipped with a warning.
func LoadSkuMatrix(path string, logger *obslog.Logger) (*SkuMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.ConfigError("sku matrix file not found: " + path).Wrap(err)
	}
	defer f.Close()
	return ParseSkuMatrix(f, logger)
}

// ParseSkuMatrix reads the SKU matrix CSV from r.
func ParseSkuMatrix(r io.Reader, logger *obslog.Logger) (*SkuMatrix, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	m := &SkuMatrix{
		byTBGSKU:      make(map[string]*domain.WalmartSkuMapping),
		byWalmartItem: make(map[string]*domain.WalmartSkuMapping),
	}

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.ConfigError("malformed sku matrix row").Wrap(err)
		}

		if first {
			first = false
			continue // header row
		}
		if isBlankRow(record) {
			continue
		}

		nonEmpty := 0
		for _, field := range record {
			if norm.Trim(field) != "" {
				nonEmpty++
			}
		}
		if nonEmpty < 2 {
			if logger != nil {
				logger.Logger.Warn("skipping sku matrix row with fewer than two non-empty fields", "row", record)
			}
			continue
		}

		tbgSKU := norm.Trim(get(record, 0))
		walmartItem := norm.Trim(get(record, 1))
		description := norm.Trim(get(record, 2))
		if tbgSKU == "" || walmartItem == "" {
			if logger != nil {
				logger.Logger.Warn("skipping sku matrix row missing tbg sku or walmart item", "row", record)
			}
			continue
		}

		mapping := &domain.WalmartSkuMapping{ShortTBGSKU: tbgSKU, WalmartItemNum: walmartItem, Description: description}
		m.byTBGSKU[strings.ToUpper(tbgSKU)] = mapping
		m.byWalmartItem[strings.ToUpper(walmartItem)] = mapping
	}

	return m, nil
}

func isBlankRow(record []string) bool {
	for _, f := range record {
		if norm.Trim(f) != "" {
			return false
		}
	}
	return true
}

func get(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

// FindByTBGSKU looks up a mapping by the exact (trimmed) short TBG SKU.
func (m *SkuMatrix) FindByTBGSKU(sku string) (*domain.WalmartSkuMapping, bool) {
	sku = norm.Trim(sku)
	if sku == "" {
		return nil, false
	}
	v, ok := m.byTBGSKU[strings.ToUpper(sku)]
	return v, ok
}

// FindByWalmartItem looks up a mapping by the exact (trimmed) Walmart
// item number.
func (m *SkuMatrix) FindByWalmartItem(item string) (*domain.WalmartSkuMapping, bool) {
	item = norm.Trim(item)
	if item == "" {
		return nil, false
	}
	v, ok := m.byWalmartItem[strings.ToUpper(item)]
	return v, ok
}

// FindByPrtnum is the sliding-window search: direct
// match first, then for each window length L from len(digits) down to
// 5, slide over the digit-only projection, trying the raw substring
// and the substring with leading zeros stripped. First hit wins.
func (m *SkuMatrix) FindByPrtnum(prtnum string) (*domain.WalmartSkuMapping, bool) {
	if mapping, ok := m.FindByTBGSKU(prtnum); ok {
		return mapping, true
	}

	digits := norm.DigitsOnly(prtnum)
	for length := len(digits); length >= minWindowLength; length-- {
		for start := 0; start+length <= len(digits); start++ {
			window := digits[start : start+length]
			if mapping, ok := m.FindByTBGSKU(window); ok {
				return mapping, true
			}
			stripped := norm.StripLeadingZeros(window)
			if stripped != window {
				if mapping, ok := m.FindByTBGSKU(stripped); ok {
					return mapping, true
				}
			}
		}
	}
	return nil, false
}
