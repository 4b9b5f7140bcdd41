package core

import "iter"

// Rows yields every cell ordered by month, then border, then measure, all
// in the given direction. The sequence is read-only and may be ranged over
// any number of times.
func (e *Engine) Rows(order Order) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, key := range e.sortedKeys(order) {
			c := e.cells[key]
			row := Row{
				Border:  key.Border,
				Month:   key.Month,
				Measure: key.Measure,
				Total:   c.Total,
				Average: c.Average,
				Date:    e.format.Format(key.Month),
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Records yields each row in output column order, without the header.
func Records(rows iter.Seq[Row]) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for row := range rows {
			if !yield(row.Record()) {
				return
			}
		}
	}
}
