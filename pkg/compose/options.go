package compose

// Default rendering settings.
const (
	DefaultImageWidth     = 300
	DefaultImageAlt       = "Signature image"
	DefaultContainerStyle = "font-family:-apple-system, Segoe UI, Roboto, Arial, sans-serif; color:#111827;"
	DefaultClosingStyle   = "margin-top:1rem;"
)

// Option configures a Composer.
type Option func(*options)

type options struct {
	containerStyle string
	closingStyle   string
	imageAlt       string
	imageWidth     int
}

func defaultOptions() *options {
	return &options{
		containerStyle: DefaultContainerStyle,
		closingStyle:   DefaultClosingStyle,
		imageAlt:       DefaultImageAlt,
		imageWidth:     DefaultImageWidth,
	}
}

// WithImageWidth sets the display width of embedded profile images in pixels.
// Non-positive values are ignored.
// Default: 300
func WithImageWidth(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.imageWidth = px
		}
	}
}

// WithContainerStyle sets the inline style of the wrapping container.
func WithContainerStyle(style string) Option {
	return func(o *options) {
		o.containerStyle = style
	}
}

// WithClosingStyle sets the inline style of the closing paragraph.
// Default: "margin-top:1rem;"
func WithClosingStyle(style string) Option {
	return func(o *options) {
		o.closingStyle = style
	}
}

// WithImageAlt sets the alt text of embedded profile images.
// Default: "Signature image"
func WithImageAlt(alt string) Option {
	return func(o *options) {
		if alt != "" {
			o.imageAlt = alt
		}
	}
}
