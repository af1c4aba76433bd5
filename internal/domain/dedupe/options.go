package dedupe

// Option configures a Window.
type Option func(*Window)

// WithMaxSize bounds the number of remembered ids. Zero or a negative value
// disables eviction.
func WithMaxSize(maxSize int) Option {
	return func(w *Window) {
		w.maxSize = maxSize
	}
}
