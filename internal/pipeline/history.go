package pipeline

// History keeps the most recent rates fetched for the current pair, in
// memory only, for the sparkline.
type History struct {
	values []float64
	size   int
}

// NewHistory creates a History holding at most size values. size <= 0
// disables recording.
func NewHistory(size int) *History {
	return &History{size: size}
}

// Push appends a value, evicting the oldest when full.
func (h *History) Push(v float64) {
	if h.size <= 0 {
		return
	}
	if len(h.values) == h.size {
		copy(h.values, h.values[1:])
		h.values = h.values[:h.size-1]
	}
	h.values = append(h.values, v)
}

// Values returns a copy, oldest first.
func (h *History) Values() []float64 {
	return append([]float64(nil), h.values...)
}

// Reset drops all values.
func (h *History) Reset() {
	h.values = h.values[:0]
}
