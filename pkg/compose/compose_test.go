package compose_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/compose"
)

const container = `<div style="font-family:-apple-system, Segoe UI, Roboto, Arial, sans-serif; color:#111827;">`

func janeDoe() *compose.Profile {
	return &compose.Profile{
		DisplayName:  "Jane Doe",
		Role:         "Engineer",
		Department:   "Platform",
		Organization: "Acme",
		Location:     compose.Location{Name: "HQ", Address: "1 Main St"},
	}
}

func TestCompose_FullDocument(t *testing.T) {
	t.Parallel()

	doc := compose.Compose(compose.Input{
		Opening:   "Hello",
		Recipient: "Alex",
		Body:      "Thanks for the update.",
		Closing:   "Best",
		Profile:   janeDoe(),
	})

	require.Equal(t,
		"Hello Alex,\n\nThanks for the update.\n\nBest,\n\nJane Doe\nEngineer, Platform\nAcme\n1 Main St",
		doc.Plain,
	)
	require.Equal(t,
		container+
			"<p>Hello Alex,</p>"+
			"<div>Thanks for the update.</div>"+
			`<p style="margin-top:1rem;">Best,</p>`+
			"<div><strong>Jane Doe</strong><br/>Engineer, Platform<br/>Acme<br/>1 Main St</div>"+
			"</div>",
		doc.HTML,
	)
}

func TestCompose_BodyOnly(t *testing.T) {
	t.Parallel()

	doc := compose.Compose(compose.Input{Body: "Body only."})

	require.Equal(t, "Body only.", doc.Plain)
	require.Equal(t, container+"<div>Body only.</div></div>", doc.HTML)
}

func TestCompose_Greeting(t *testing.T) {
	t.Parallel()

	t.Run("no greeting section when opening and recipient are empty", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Body: "Hi there", Closing: "Thanks"})
		require.NotContains(t, doc.HTML, "<p></p>")
		require.NotContains(t, doc.HTML, "<p>,</p>")
		require.True(t, strings.HasPrefix(doc.Plain, "Hi there"))
	})

	t.Run("opening ending in a comma gets no second comma", func(t *testing.T) {
		t.Parallel()

		for _, opening := range []string{"Hello,", "Hi,", "Dear team,", "Hey ,"} {
			doc := compose.Compose(compose.Input{Opening: opening, Recipient: "Sam"})
			require.NotContains(t, doc.Plain, ",,", opening)
			require.NotContains(t, doc.HTML, ",,", opening)

			doc = compose.Compose(compose.Input{Opening: opening})
			require.NotContains(t, doc.Plain, ",,", opening)
			require.True(t, strings.HasSuffix(doc.Plain, ","), opening)
		}
	})

	t.Run("recipient without opening", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Recipient: "Alex", Body: "Hi"})
		require.Equal(t, "Alex,\n\nHi", doc.Plain)
		require.Contains(t, doc.HTML, "<p>Alex,</p>")
	})

	t.Run("multi-line opening keeps its line breaks", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Opening: "Hello\nteam"})
		require.Contains(t, doc.HTML, "<p>Hello<br/>team,</p>")
	})
}

func TestCompose_Body(t *testing.T) {
	t.Parallel()

	t.Run("body is escaped and line-broken in markup but verbatim in plain", func(t *testing.T) {
		t.Parallel()

		body := "Line <1>\r\nLine & 2,"
		doc := compose.Compose(compose.Input{Body: body})
		require.Equal(t, body, doc.Plain)
		require.Contains(t, doc.HTML, "<div>Line &lt;1&gt;<br/>Line &amp; 2,</div>")
	})

	t.Run("whitespace-only body is omitted", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Opening: "Hi", Body: "  \n\t", Closing: "Bye"})
		require.Equal(t, "Hi,\n\nBye,", doc.Plain)
		require.NotContains(t, doc.HTML, "<div>  ")
	})
}

func TestCompose_Closing(t *testing.T) {
	t.Parallel()

	t.Run("existing comma is kept once", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Closing: "Kind regards,"})
		require.Equal(t, "Kind regards,", doc.Plain)
	})

	t.Run("empty closing is omitted", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Body: "x", Closing: "   "})
		require.Equal(t, "x", doc.Plain)
		require.NotContains(t, doc.HTML, "margin-top:1rem")
	})
}

func TestCompose_Profile(t *testing.T) {
	t.Parallel()

	t.Run("absent profile omits the block", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Body: "x", Image: &compose.Image{ContentType: "image/png", Base64: "AAAA"}})
		require.NotContains(t, doc.HTML, "<strong>")
		require.NotContains(t, doc.HTML, "<img")
	})

	t.Run("profile fields are escaped", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Profile: &compose.Profile{
			DisplayName:  "A & B <Ltd>",
			Organization: "R&D",
		}})
		require.Contains(t, doc.HTML, "<strong>A &amp; B &lt;Ltd&gt;</strong><br/>R&amp;D")
		require.Equal(t, "A & B <Ltd>\nR&D", doc.Plain)
	})

	t.Run("missing role or department leaves no stray comma", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Profile: &compose.Profile{DisplayName: "Jane", Department: "Platform"}})
		require.Equal(t, "Jane\nPlatform", doc.Plain)
	})

	t.Run("empty profile without image adds nothing", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{Body: "x", Profile: &compose.Profile{}})
		require.Equal(t, container+"<div>x</div></div>", doc.HTML)
		require.Equal(t, "x", doc.Plain)
	})

	t.Run("image is embedded in markup only", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{
			Profile: janeDoe(),
			Image:   &compose.Image{ContentType: "image/jpeg", Base64: "/9j/4AAQ"},
		})
		require.Contains(t, doc.HTML,
			`1 Main St<br/><img src="data:image/jpeg;base64,/9j/4AAQ" width="300" `+
				`style="display:block;width:300px;height:auto;margin-top:1rem;border:0;outline:0;text-decoration:none;" `+
				`alt="Signature image" /></div>`)
		require.Equal(t, "Jane Doe\nEngineer, Platform\nAcme\n1 Main St", doc.Plain)
	})

	t.Run("unresolved image keeps text lines and emits no image tag", func(t *testing.T) {
		t.Parallel()

		p := janeDoe()
		p.ImageRef = "missing.png"
		doc := compose.Compose(compose.Input{Profile: p, Image: nil})
		require.NotContains(t, doc.HTML, "<img")
		require.Contains(t, doc.HTML, "<strong>Jane Doe</strong>")
		require.Equal(t, "Jane Doe\nEngineer, Platform\nAcme\n1 Main St", doc.Plain)
	})

	t.Run("suspicious content type falls back to png", func(t *testing.T) {
		t.Parallel()

		doc := compose.Compose(compose.Input{
			Profile: janeDoe(),
			Image:   &compose.Image{ContentType: `text/html"><script>`, Base64: "AAAA"},
		})
		require.Contains(t, doc.HTML, `src="data:image/png;base64,AAAA"`)
		require.NotContains(t, doc.HTML, "<script>")
	})
}

func TestComposer_Options(t *testing.T) {
	t.Parallel()

	c := compose.New(
		compose.WithImageWidth(120),
		compose.WithImageAlt("Logo"),
		compose.WithContainerStyle("color:#000;"),
		compose.WithClosingStyle(""),
	)
	doc := c.Compose(compose.Input{
		Closing: "Cheers",
		Profile: &compose.Profile{DisplayName: "Jane"},
		Image:   &compose.Image{ContentType: "image/png", Base64: "AAAA"},
	})

	require.True(t, strings.HasPrefix(doc.HTML, `<div style="color:#000;">`))
	require.Contains(t, doc.HTML, "<p>Cheers,</p>")
	require.Contains(t, doc.HTML, `width="120"`)
	require.Contains(t, doc.HTML, "width:120px;")
	require.Contains(t, doc.HTML, `alt="Logo"`)
}

func TestCompose_SameSnapshot(t *testing.T) {
	t.Parallel()

	in := compose.Input{Opening: "Hi", Recipient: "Kim", Body: "One\nTwo", Closing: "Bye", Profile: janeDoe()}
	first := compose.Compose(in)
	second := compose.Compose(in)
	require.Equal(t, first, second)

	for _, line := range strings.Split(first.Plain, "\n") {
		if line == "" {
			continue
		}
		require.Contains(t, first.HTML, compose.EscapeMarkup(line))
	}
}
