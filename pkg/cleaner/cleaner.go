// Package cleaner provides composable content transforms used to inspect
// and preview the extraction pipeline's intermediate fragments.
package cleaner

// Cleaner transforms markup into another representation.
type Cleaner interface {
	// Clean transforms the input. The output format depends on the
	// implementation (located markup, sanitized fragment, markdown).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Func adapts a function to the Cleaner interface.
type Func struct {
	name string
	fn   func(string) (string, error)
}

// NewFunc wraps fn as a Cleaner named name.
func NewFunc(name string, fn func(string) (string, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Clean calls the wrapped function.
func (f *Func) Clean(html string) (string, error) {
	return f.fn(html)
}

// Name returns the configured name.
func (f *Func) Name() string {
	return f.name
}
