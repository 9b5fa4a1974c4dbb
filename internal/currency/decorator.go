package currency

import (
	"fmt"
	"sync"

	"github.com/sadopc/billr/internal/dashboard"
)

// Converted display fields, in the target currency.
const (
	FieldRevenue       = "fx-total-revenue"
	FieldExpenses      = "fx-total-expenses"
	FieldNetIncome     = "fx-net-income"
	FieldAvgHourlyRate = "fx-avg-hourly-rate"
	FieldRate          = "fx-rate"
)

var FieldIDs = []string{FieldRevenue, FieldExpenses, FieldNetIncome, FieldAvgHourlyRate, FieldRate}

// Decorator writes converted copies of the money totals. The rate is set by
// whoever loads data, before the refresh that uses it.
type Decorator struct {
	base   string
	format dashboard.Formatter

	mu      sync.Mutex
	rate    float64
	enabled bool
}

func NewDecorator(base, target string) *Decorator {
	return &Decorator{base: base, format: dashboard.NewFormatter(target), enabled: true}
}

func (d *Decorator) SetRate(rate float64) {
	d.mu.Lock()
	d.rate = rate
	d.mu.Unlock()
}

// SetEnabled toggles the decorator. A disabled decorator blanks its fields.
func (d *Decorator) SetEnabled(on bool) {
	d.mu.Lock()
	d.enabled = on
	d.mu.Unlock()
}

func (d *Decorator) Decorate(v dashboard.Views, p dashboard.Page) {
	d.mu.Lock()
	rate, on := d.rate, d.enabled
	d.mu.Unlock()

	if !on || rate <= 0 {
		for _, id := range FieldIDs {
			set(p, id, "")
		}
		return
	}

	s := v.Summary
	set(p, FieldRevenue, d.format.Money(s.TotalRevenue*rate))
	set(p, FieldExpenses, d.format.Money(s.TotalExpenses*rate))
	set(p, FieldNetIncome, d.format.Money(s.NetIncome*rate))
	set(p, FieldAvgHourlyRate, d.format.Money(s.AvgHourlyRate*rate))
	set(p, FieldRate, fmt.Sprintf("1 %s = %.4f %s", d.base, rate, d.format.Code()))
}

func set(p dashboard.Page, id, text string) {
	if f, ok := p.Field(id); ok {
		f.SetText(text)
	}
}
