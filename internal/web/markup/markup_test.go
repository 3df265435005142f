package markup

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	out, err := ToHTML("## Check-in\n\nFrom **3pm**.")
	require.NoError(t, err)
	assert.Contains(t, out, `<h2 id="check-in">Check-in</h2>`)
	assert.Contains(t, out, "<strong>3pm</strong>")
}

func TestToHTMLRemovesScripts(t *testing.T) {
	out, err := ToHTML("hello <script>alert(1)</script><a href=\"javascript:alert(1)\">x</a>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestToHTMLTables(t *testing.T) {
	out, err := ToHTML("| Room | Price |\n|---|---|\n| Twin | 90 |")
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>Twin</td>")
}

func TestMarkdown(t *testing.T) {
	assert.Contains(t, string(Markdown("*calm*")), "<em>calm</em>")
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Hi there", StripTags("  <b>Hi</b> there<script>x</script> "))
	assert.Equal(t, "plain", StripTags("plain"))
	assert.Equal(t, "Tom & Jerry's", StripTags("Tom & Jerry's"))
}

func TestAsset(t *testing.T) {
	assert.Equal(t, template.URL("/static/img/logo.svg"), Asset("/static/img/logo.svg"))
	assert.Equal(t, template.URL("https://cdn.example.com/a.png"), Asset(" https://cdn.example.com/a.png "))
	assert.Equal(t, template.URL("data:image/png;base64,iVBORw0KGgo="), Asset("data:image/png;base64,iVBORw0KGgo="))
	assert.Empty(t, Asset("data:image/svg+xml;base64,PHN2Zz4="))
	assert.Empty(t, Asset("javascript:alert(1)"))
	assert.Empty(t, Asset("//evil.example.com/x.png"))
	assert.Empty(t, Asset(""))
}
