package quote

// Row is a quote as offered for review, with a 1-based ID and a
// selection flag the reviewer may flip.
type Row struct {
	ID int `json:"id"`
	Located
	Selected bool `json:"selected"`
}

// Preview returns the first limit quotes as rows, pre-selecting the first count.
// A non-positive limit means all quotes.
func Preview(quotes []Located, limit, count int) []Row {
	if limit <= 0 || limit > len(quotes) {
		limit = len(quotes)
	}
	rows := make([]Row, limit)
	for i := range limit {
		rows[i] = Row{
			ID:       i + 1,
			Located:  quotes[i],
			Selected: i < count,
		}
	}
	return rows
}

// Choose returns up to count selected quotes that have a known page, in row order.
func Choose(rows []Row, count int) []Located {
	var out []Located
	for _, r := range rows {
		if len(out) >= count {
			break
		}
		if !r.Selected || !r.Known() {
			continue
		}
		out = append(out, r.Located)
	}
	return out
}
