package utils

import (
	"math"
	"strconv"
	"strings"
)

// FormatCOP formats an amount of Colombian pesos as $25.000. Pesos have no
// cents in practice, so the amount is rounded.
func FormatCOP(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}
