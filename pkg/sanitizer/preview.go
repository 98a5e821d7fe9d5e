// Package sanitizer cleans composed markup before it is shown in a browser.
package sanitizer

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// inlineStyle accepts plain declarations and rejects anything that could
// load a resource, such as url() or expression().
var inlineStyle = regexp.MustCompile(`^[a-zA-Z0-9\s:;,.#%\-]*$`)

var (
	previewPolicy *bluemonday.Policy
	initOnce      sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		previewPolicy = bluemonday.NewPolicy()
		previewPolicy.AllowElements("div", "p", "br", "strong")
		previewPolicy.AllowImages()
		previewPolicy.AllowDataURIImages()
		previewPolicy.AllowAttrs("style").Matching(inlineStyle).OnElements("div", "p", "img")
	})
}

// Preview keeps the markup a composed document is made of: div, p, br,
// strong and img elements, inline styles and data URI images. Everything
// else, including scripts, event handlers and remote URLs in styles, is
// removed.
func Preview(html string) string {
	initPolicies()
	return previewPolicy.Sanitize(html)
}

// Policy returns the shared preview policy. It must not be modified.
func Policy() *bluemonday.Policy {
	initPolicies()
	return previewPolicy
}
