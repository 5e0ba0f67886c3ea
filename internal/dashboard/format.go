// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/storelens/storelens/internal/models"
)

// FormatValue renders a scalar value per the metric's format configuration.
// The zero-value config renders a plain number with no decimals.
func FormatValue(v float64, cfg models.FormatConfig) string {
	var body string
	switch cfg.Style {
	case models.FormatCurrency:
		decimals := cfg.Decimals
		if decimals == 0 {
			decimals = 2
		}
		body = groupThousands(v, decimals)
	case models.FormatPercentage:
		body = fmt.Sprintf("%.*f%%", cfg.Decimals, v)
	case models.FormatCompact:
		body = compactNumber(v, cfg.Decimals)
	default:
		body = groupThousands(v, cfg.Decimals)
	}
	return cfg.Prefix + body + cfg.Suffix
}

// groupThousands renders v with comma thousands separators.
func groupThousands(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	if neg {
		intPart = "-" + intPart
	}
	return intPart + fracPart
}

// compactNumber renders large magnitudes with K/M/B suffixes.
func compactNumber(v float64, decimals int) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.*fB", maxInt(decimals, 1), v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.*fM", maxInt(decimals, 1), v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.*fK", maxInt(decimals, 1), v/1e3)
	default:
		return fmt.Sprintf("%.*f", decimals, v)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
