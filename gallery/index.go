package gallery

// IndexRange is a closed integer range [Lower, Upper].
type IndexRange struct {
	Lower int
	Upper int
}

// Clamp returns i limited to the range.
func (r IndexRange) Clamp(i int) int {
	return ClampToRange(i, r)
}

// Contains reports whether i lies inside the range.
func (r IndexRange) Contains(i int) bool {
	return i >= r.Lower && i <= r.Upper
}

// Len is the number of indexes in the range.
func (r IndexRange) Len() int {
	return r.Upper - r.Lower + 1
}

// ClampToRange is a plain min/max clamp.
func ClampToRange(i int, r IndexRange) int {
	if i < r.Lower {
		return r.Lower
	}
	if i > r.Upper {
		return r.Upper
	}
	return i
}

// TotalRows is the number of scrubber steps for itemCount photos at zoom z.
// It is never less than one, so an empty library still has the range [0, 0].
func TotalRows(itemCount int, z ZoomLevel) int {
	cols := z.Columns()
	if itemCount <= 0 {
		return 1
	}
	return (itemCount + cols - 1) / cols
}

// RowRange is the valid committed-index range for itemCount photos at zoom z.
func RowRange(itemCount int, z ZoomLevel) IndexRange {
	return IndexRange{Lower: 0, Upper: TotalRows(itemCount, z) - 1}
}

// ItemRangeForRow returns the half-open item range [start, end) shown in row.
// Rows outside the collection give an empty range.
func ItemRangeForRow(row, itemCount int, z ZoomLevel) (start, end int) {
	if itemCount < 0 {
		itemCount = 0
	}
	cols := z.Columns()
	start = row * cols
	if start < 0 {
		start = 0
	}
	if start > itemCount {
		start = itemCount
	}
	end = start + cols
	if end > itemCount {
		end = itemCount
	}
	return start, end
}

// RowForItem returns the row holding the item at index item.
func RowForItem(item int, z ZoomLevel) int {
	if item <= 0 {
		return 0
	}
	return item / z.Columns()
}
