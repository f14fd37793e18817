package gallery

import "math"

// calculateCellSize is the side of a square cell when cols cells and their
// spacing fill width exactly.
func calculateCellSize(width float32, cols int) float32 {
	if cols < 1 {
		cols = 1
	}
	side := (width - cellSpacing*float32(cols-1)) / float32(cols)
	if side < 1 {
		return 1
	}
	return float32(math.Floor(float64(side)))
}

// contentHeight is the full scrollable height of rows rows of side cells.
func contentHeight(rows int, side float32) float32 {
	if rows < 1 {
		return 0
	}
	return float32(rows)*side + float32(rows-1)*cellSpacing
}

// visibleRows returns the first and last row intersecting the viewport,
// widened by overscan rows on each side and clamped to [0, rows-1]. It
// returns last < first when nothing is visible.
func visibleRows(offset, viewport, side float32, rows, overscan int) (first, last int) {
	if rows < 1 || side <= 0 || viewport <= 0 {
		return 0, -1
	}
	step := side + cellSpacing
	first = int(math.Floor(float64(offset/step))) - overscan
	last = int(math.Floor(float64((offset+viewport)/step))) + overscan
	if first < 0 {
		first = 0
	}
	if last > rows-1 {
		last = rows - 1
	}
	return first, last
}

// thumbnailSide rounds a cell size up to a 64px bucket so nearby zoom
// levels share cached thumbnails.
func thumbnailSide(cell float32, scale float32) int {
	if scale <= 0 {
		scale = 1
	}
	px := int(math.Ceil(float64(cell * scale)))
	if px < thumbnailMinSide {
		px = thumbnailMinSide
	}
	const bucket = 64
	return (px + bucket - 1) / bucket * bucket
}
