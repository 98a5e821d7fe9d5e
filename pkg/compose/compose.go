package compose

import (
	"strconv"
	"strings"
)

const defaultImageType = "image/png"

// Location is the place a sender profile belongs to.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Profile is a read-only snapshot of a sender's identity block.
type Profile struct {
	DisplayName  string   `json:"display_name"`
	Role         string   `json:"role"`
	Department   string   `json:"department"`
	Organization string   `json:"organization"`
	Location     Location `json:"location"`
	ImageRef     string   `json:"image_ref,omitempty"`
}

// Image is a resolved profile image ready for embedding.
type Image struct {
	ContentType string // e.g. "image/png"
	Base64      string // standard base64 encoding of the image bytes
}

// Input is one consistent snapshot of everything a document is built from.
type Input struct {
	Profile   *Profile // nil omits the profile block
	Image     *Image   // nil when there is no image or it failed to resolve
	Opening   string
	Recipient string
	Body      string
	Closing   string
}

// Document is the paired rendering of one Input.
type Document struct {
	HTML  string `json:"html"`
	Plain string `json:"plain"`
}

// Composer renders documents with a fixed set of options.
// It holds no mutable state and is safe for concurrent use.
type Composer struct {
	opts *options
}

// New creates a Composer.
func New(opts ...Option) *Composer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Composer{opts: o}
}

var defaultComposer = New()

// Compose renders in with the default options.
func Compose(in Input) Document {
	return defaultComposer.Compose(in)
}

// Compose renders both the HTML and the plain-text version of in.
// It never fails: missing fragments only remove their section.
func (c *Composer) Compose(in Input) Document {
	greeting := Greeting(in.Opening, in.Recipient)
	closing := EnsureTrailingComma(strings.TrimSpace(in.Closing))
	body := in.Body
	if isBlank(body) {
		body = ""
	}

	var html strings.Builder
	html.WriteString(`<div style="`)
	html.WriteString(EscapeMarkup(c.opts.containerStyle))
	html.WriteString(`">`)

	if greeting != "" {
		html.WriteString("<p>")
		html.WriteString(ToMarkupLines(greeting))
		html.WriteString("</p>")
	}
	if body != "" {
		html.WriteString("<div>")
		html.WriteString(ToMarkupLines(body))
		html.WriteString("</div>")
	}
	if closing != "" {
		if c.opts.closingStyle != "" {
			html.WriteString(`<p style="`)
			html.WriteString(EscapeMarkup(c.opts.closingStyle))
			html.WriteString(`">`)
		} else {
			html.WriteString("<p>")
		}
		html.WriteString(ToMarkupLines(closing))
		html.WriteString("</p>")
	}

	var lines []string
	if in.Profile != nil {
		lines = profileLines(in.Profile)
		if block := c.profileMarkup(lines, in.Image); block != "" {
			html.WriteString(block)
		}
	}
	html.WriteString("</div>")

	plain := make([]string, 0, 4)
	for _, section := range []string{greeting, body, closing, strings.Join(lines, "\n")} {
		if !isBlank(section) {
			plain = append(plain, section)
		}
	}

	return Document{
		HTML:  html.String(),
		Plain: strings.Join(plain, "\n\n"),
	}
}

// Greeting builds the greeting line from an opening and a recipient name.
// The opening loses one trailing comma, the recipient is appended after a
// single space, and the result ends with exactly one comma. Both inputs
// empty yields an empty greeting.
func Greeting(opening, recipient string) string {
	base := stripTrailingComma(opening)
	name := strings.TrimSpace(recipient)

	var greeting string
	switch {
	case base != "" && name != "":
		greeting = base + " " + name
	case name != "":
		greeting = name
	default:
		greeting = base
	}
	return EnsureTrailingComma(greeting)
}

// profileLines returns the non-empty, unescaped lines of a profile block:
// name, "role, department", organization and address.
func profileLines(p *Profile) []string {
	lines := make([]string, 0, 4)
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}

	add(p.DisplayName)

	var roleParts []string
	for _, part := range []string{p.Role, p.Department} {
		if part = strings.TrimSpace(part); part != "" {
			roleParts = append(roleParts, part)
		}
	}
	add(strings.Join(roleParts, ", "))

	add(p.Organization)
	add(p.Location.Address)
	return lines
}

func (c *Composer) profileMarkup(lines []string, img *Image) string {
	hasImage := img != nil && img.Base64 != ""
	if len(lines) == 0 && !hasImage {
		return ""
	}

	var b strings.Builder
	b.WriteString("<div>")
	for i, line := range lines {
		if i > 0 {
			b.WriteString(LineBreak)
		}
		if i == 0 {
			b.WriteString("<strong>")
			b.WriteString(EscapeMarkup(line))
			b.WriteString("</strong>")
			continue
		}
		b.WriteString(EscapeMarkup(line))
	}
	if hasImage {
		if len(lines) > 0 {
			b.WriteString(LineBreak)
		}
		b.WriteString(c.imageMarkup(img))
	}
	b.WriteString("</div>")
	return b.String()
}

func (c *Composer) imageMarkup(img *Image) string {
	width := strconv.Itoa(c.opts.imageWidth)

	var b strings.Builder
	b.WriteString(`<img src="data:`)
	b.WriteString(imageType(img.ContentType))
	b.WriteString(";base64,")
	b.WriteString(img.Base64)
	b.WriteString(`" width="`)
	b.WriteString(width)
	b.WriteString(`" style="display:block;width:`)
	b.WriteString(width)
	b.WriteString(`px;height:auto;margin-top:1rem;border:0;outline:0;text-decoration:none;" alt="`)
	b.WriteString(EscapeMarkup(c.opts.imageAlt))
	b.WriteString(`" />`)
	return b.String()
}

// imageType keeps only well-formed image content types; anything else is
// embedded as PNG.
func imageType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if !strings.HasPrefix(ct, "image/") || strings.ContainsAny(ct, "\"'<>; ") {
		return defaultImageType
	}
	return ct
}
