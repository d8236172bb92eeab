package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormatter formats currency values with the document's symbol as a
// prefix and locale-style digit grouping. Totals always carry two fraction
// digits; unit prices are not padded but keep the digits they have.
type MoneyFormatter struct {
	printer *message.Printer
}

// NewMoneyFormatter builds a formatter with English-style grouping.
func NewMoneyFormatter() *MoneyFormatter {
	return &MoneyFormatter{printer: message.NewPrinter(language.English)}
}

// Total renders a total-style value: grouped, two fraction digits.
func (f *MoneyFormatter) Total(symbol string, value float64) string {
	return symbol + f.printer.Sprint(number.Decimal(value,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Unit renders a unit-price-style value: grouped, no zero padding, fractional
// digits preserved up to three places.
func (f *MoneyFormatter) Unit(symbol string, value float64) string {
	return symbol + f.printer.Sprint(number.Decimal(value,
		number.MinFractionDigits(0), number.MaxFractionDigits(3)))
}
