package cleaner

import (
	"github.com/jmylchreest/larder/pkg/locator"
)

// LocatorCleaner reduces a page to its located recipe candidate.
type LocatorCleaner struct {
	locator *locator.Locator
}

// NewLocator wraps l. A nil l uses the default rule chain.
func NewLocator(l *locator.Locator) *LocatorCleaner {
	if l == nil {
		l = locator.New()
	}
	return &LocatorCleaner{locator: l}
}

// Clean returns the inner markup of the winning candidate.
func (c *LocatorCleaner) Clean(html string) (string, error) {
	return c.locator.Locate(html).HTML, nil
}

// Name returns the cleaner type.
func (c *LocatorCleaner) Name() string {
	return "locator"
}
