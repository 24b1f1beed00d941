package layout

// Columns splits the printable width between the margins proportionally to
// weights and returns the N+1 column boundaries, left to right. A zero total
// weight collapses every boundary onto the left margin.
func Columns(weights []int, pageWidth, marginLeft, marginRight float64) []float64 {
	positions := make([]float64, 0, len(weights)+1)
	positions = append(positions, marginLeft)

	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}

	usable := pageWidth - marginLeft - marginRight
	x := marginLeft
	for _, w := range weights {
		if total > 0 && w > 0 {
			x += usable * float64(w) / float64(total)
		}
		positions = append(positions, x)
	}
	return positions
}
