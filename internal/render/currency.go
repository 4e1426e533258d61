package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Vietnamese grouping: dots every three digits, no decimal part. VND is a
// zero-decimal currency so amounts are whole đồng.
var vndPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount for screens, e.g. "12.500.000 ₫".
func FormatVND(amount int64) string {
	return vndPrinter.Sprint(number.Decimal(amount)) + " ₫"
}

// FormatVNDCode renders an amount with the currency code instead of the
// symbol, e.g. "12.500.000 VND". Used where the ₫ glyph is unavailable,
// such as the built-in PDF fonts.
func FormatVNDCode(amount int64) string {
	return vndPrinter.Sprint(number.Decimal(amount)) + " VND"
}
