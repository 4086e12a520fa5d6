package mentions

// adWindow is the sponsor-read watermark: the last segment index still
// treated as part of an ad block. It only ever moves forward.
type adWindow struct {
	size int
	end  int
}

func newAdWindow(size int) adWindow {
	return adWindow{size: size, end: -1}
}

// open extends the window to cover idx through idx+size.
func (w *adWindow) open(idx int) {
	if end := idx + w.size; end > w.end {
		w.end = end
	}
}

func (w adWindow) covers(idx int) bool {
	return idx <= w.end
}
