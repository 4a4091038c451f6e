package refdata

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/norm"
	"github.com/wms-platform/labeltagctl/internal/obslog"
)

// LocationMatrix resolves a sold-to key to its mapped DC location code.
type LocationMatrix struct {
	byCanonicalSoldTo map[string]string
}

// LoadLocationMatrix reads the CSV file at path: header `Sold-To Name,
// Location #, Sold-To #`.
func LoadLocationMatrix(path string, logger *obslog.Logger) (*LocationMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.ConfigError("location matrix file not found: " + path).Wrap(err)
	}
	defer f.Close()
	return ParseLocationMatrix(f, logger)
}

// ParseLocationMatrix reads the location matrix CSV from r.
func ParseLocationMatrix(r io.Reader, logger *obslog.Logger) (*LocationMatrix, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	lm := &LocationMatrix{byCanonicalSoldTo: make(map[string]string)}

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.ConfigError("malformed location matrix row").Wrap(err)
		}
		if first {
			first = false
			continue
		}
		if isBlankRow(record) {
			continue
		}

		nonEmpty := 0
		for _, f := range record {
			if norm.Trim(f) != "" {
				nonEmpty++
			}
		}
		if nonEmpty < 2 {
			if logger != nil {
				logger.Logger.Warn("skipping location matrix row with fewer than two non-empty fields", "row", record)
			}
			continue
		}

		locationNum := norm.Trim(get(record, 1))
		soldTo := norm.Trim(get(record, 2))
		if soldTo == "" || locationNum == "" {
			if logger != nil {
				logger.Logger.Warn("skipping location matrix row missing sold-to or location", "row", record)
			}
			continue
		}

		lm.byCanonicalSoldTo[CanonicalSoldToKey(soldTo)] = locationNum
	}

	return lm, nil
}

// CanonicalSoldToKey canonicalizes a sold-to value: uppercase,
// drop a leading 'C', keep digits only, strip leading zeros (collapses
// to "0" if all-zero).
func CanonicalSoldToKey(value string) string {
	upper := strings.ToUpper(norm.Trim(value))
	upper = strings.TrimPrefix(upper, "C")
	digits := norm.DigitsOnly(upper)
	return norm.StripLeadingZeros(digits)
}

// ResolveDcLocation returns the mapped DC code for value's canonicalised
// sold-to key, else the trimmed input.
func (lm *LocationMatrix) ResolveDcLocation(value string) string {
	key := CanonicalSoldToKey(value)
	if mapped, ok := lm.byCanonicalSoldTo[key]; ok {
		return mapped
	}
	return norm.Trim(value)
}
