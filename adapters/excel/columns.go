package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gotrack/domain/core"
)

// columnIndex resolves aliases against a header row
type columnIndex map[string]string

func newColumnIndex(headers []string) columnIndex {
	idx := make(columnIndex, len(headers))
	for _, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = h
	}
	return idx
}

// lookup returns the real header name matching one of the aliases
func (c columnIndex) lookup(aliases []string) (string, bool) {
	for _, a := range aliases {
		if h, ok := c[a]; ok {
			return h, true
		}
	}
	return "", false
}

func (c columnIndex) require(aliases []string) (string, error) {
	h, ok := c.lookup(aliases)
	if !ok {
		return "", fmt.Errorf("%w: expected one of %v", core.ErrMissingColumn, aliases)
	}
	return h, nil
}

// ParseList decodes a list cell such as "[0, 16, 33]", "0,16,33", "0|16|33" or "0;16;33"
func ParseList(cell string) ([]float64, error) {
	cell = strings.TrimSpace(cell)
	cell = strings.TrimPrefix(cell, "[")
	cell = strings.TrimSuffix(cell, "]")
	if cell == "" {
		return nil, nil
	}

	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == ' ' || r == '\t'
	})

	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'`)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid list element %q: %w", f, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite list element %q", f)
		}
		values = append(values, v)
	}
	return values, nil
}

// FormatList encodes values the way the experiment logger does
func FormatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
