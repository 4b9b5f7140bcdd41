package core

// pairKey identifies a (border, measure) series across months.
type pairKey struct {
	Border  string
	Measure string
}

// DeriveRunningAverages walks months in chronological order and sets each
// cell's Average to the half-up rounded mean of the pair's totals over all
// strictly earlier months. Months in which the pair is absent count toward
// the denominator. It must run once, after accumulation is complete.
func (e *Engine) DeriveRunningAverages() error {
	if e.finalized {
		return ErrFinalized
	}
	e.finalized = true

	keys := e.sortedKeys(Ascending)
	prior := make(map[pairKey]int64)

	k := int64(0)
	for i := 0; i < len(keys); {
		j := i
		for j < len(keys) && keys[j].Month == keys[i].Month {
			j++
		}
		month := keys[i:j]

		for _, key := range month {
			c := e.cells[key]
			sum, seen := prior[pairKey{key.Border, key.Measure}]
			if k == 0 || !seen {
				c.Average = 0
				continue
			}
			c.Average = roundHalfUp(sum, k)
		}
		for _, key := range month {
			prior[pairKey{key.Border, key.Measure}] += e.cells[key].Total
		}

		k++
		i = j
	}

	e.logger.Debug("Derived running averages",
		"months", k,
		"cells", len(keys),
		"series", len(prior))
	return nil
}

// roundHalfUp returns num/den rounded to the nearest integer, ties toward
// positive infinity. den must be positive.
func roundHalfUp(num, den int64) int64 {
	n, d := 2*num+den, 2*den
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return q
}
