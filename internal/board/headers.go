package board

import (
	"fmt"
	"time"
)

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Header cells rewritten with month labels.
const (
	nextMonthHeader      = 2
	monthAfterNextHeader = 3
)

// MonthLabels returns the names of the two months following now.
func MonthLabels(now time.Time) (next, afterNext string) {
	m := int(now.Month()) - 1
	return monthNames[(m+1)%12], monthNames[(m+2)%12]
}

// ApplyMonthHeaders writes "Status (<month>)" into the third and fourth
// header cells. Nothing changes when the table has fewer than four headers.
func (b *Board) ApplyMonthHeaders(now time.Time) (next, afterNext string, ok bool) {
	next, afterNext = MonthLabels(now)

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.snap.Headers) < 4 {
		return next, afterNext, false
	}
	b.snap.Headers[nextMonthHeader] = fmt.Sprintf("Status (%s)", next)
	b.snap.Headers[monthAfterNextHeader] = fmt.Sprintf("Status (%s)", afterNext)
	return next, afterNext, true
}
