// Package compose turns message fragments into a paired HTML and plain-text
// document.
//
// A document is built from an opening line, a recipient name, a body, a
// closing line and an optional sender profile with an embedded image. Both
// renderings come out of a single call over a single [Input], so the HTML
// and the plain text can never disagree about which fragments were used.
//
// # Rules
//
// The opening loses one trailing comma before the recipient name is
// appended, then the greeting gets exactly one trailing comma. The closing
// is normalized the same way. The body is never punctuation-normalized.
// Empty sections are dropped from both renderings, so an empty opening and
// recipient never produce an empty paragraph or a stray blank line.
//
// Profile images are embedded as data URIs in the HTML rendering and
// omitted from the plain text.
//
// # Usage
//
//	doc := compose.Compose(compose.Input{
//	    Opening:   "Hello",
//	    Recipient: "Alex",
//	    Body:      "Thanks for the update.",
//	    Closing:   "Best",
//	    Profile:   &compose.Profile{DisplayName: "Jane Doe"},
//	})
//	fmt.Println(doc.Plain)
//
// A [Composer] created with [New] accepts options for the image width,
// the container style and the image alt text.
package compose
