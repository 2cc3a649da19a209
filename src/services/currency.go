package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatVND renders an amount the way vi-VN locales print dong, e.g. 9.000.000đ
func FormatVND(amount decimal.Decimal) string {
	digits := amount.Round(0).Abs().StringFixed(0)

	var b strings.Builder
	if amount.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	b.WriteString("đ")
	return b.String()
}
