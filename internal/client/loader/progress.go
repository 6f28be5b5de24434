package loader

// Progress is one progress reading of a load.
type Progress struct {
	Received int64
	// Total is -1 when the source did not declare a length.
	Total   int64
	Percent int
}

// Known reports whether the total length was declared.
func (p Progress) Known() bool {
	return p.Total > 0
}

// percentOf rounds received/total to a whole percentage in [0, 100].
// An unknown total yields 0.
func percentOf(received, total int64) int {
	if total <= 0 || received <= 0 {
		return 0
	}
	if received >= total {
		return 100
	}
	return int((received*100 + total/2) / total)
}
