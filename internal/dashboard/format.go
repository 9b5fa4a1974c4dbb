package dashboard

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// Formatter renders scalar values for display.
type Formatter struct {
	printer *message.Printer
	code    string
	symbol  string
}

// NewFormatter returns a formatter for the given ISO currency code. Unknown
// codes fall back to USD.
func NewFormatter(code string) Formatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	sym, ok := symbols[unit.String()]
	if !ok {
		sym = unit.String() + " "
	}
	return Formatter{printer: message.NewPrinter(language.English), code: unit.String(), symbol: sym}
}

// Money formats v with two decimals, digit grouping and the currency symbol.
func (f Formatter) Money(v float64) string {
	v = finite(v)
	if v < 0 {
		return "-" + f.symbol + f.printer.Sprintf("%.2f", -v)
	}
	return f.symbol + f.printer.Sprintf("%.2f", v)
}

func (f Formatter) Hours(v float64) string {
	return f.printer.Sprintf("%.2f", finite(v))
}

func (f Formatter) Count(n int) string {
	return strconv.Itoa(n)
}

// Percent returns part/total as a whole percentage, 0 when total is 0.
func Percent(part, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Symbol returns the prefix used by Money, without trailing space.
func (f Formatter) Symbol() string {
	return strings.TrimSpace(f.symbol)
}

// Code is the ISO code the formatter settled on.
func (f Formatter) Code() string { return f.code }
