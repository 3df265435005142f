// Package markup renders editor supplied markdown into sanitised HTML and strips markup from plain text input.
package markup

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New( //nolint:gochecknoglobals
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// raw HTML is allowed through goldmark and removed by the policy below
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithUnsafe()),
	)

	ugc    = newUGCPolicy()
	strict = bluemonday.StrictPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return p
}

// ToHTML converts markdown to sanitised HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}

	return ugc.Sanitize(buf.String()), nil
}

// Markdown is the template function behind {{ markdown .Body }}.
// Conversion errors render the escaped source instead.
func Markdown(source string) template.HTML {
	out, err := ToHTML(source)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(source)) //nolint:gosec
	}

	return template.HTML(out) //nolint:gosec // sanitised by the UGC policy
}

// StripTags removes all markup and trims surrounding space. The result is
// plain text, entities escaped by the policy are decoded again.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Asset is the template function for image sources taken from settings or
// section documents. Relative paths, http(s) URLs and base64 data URIs of
// raster images pass, anything else renders as an empty source.
func Asset(src string) template.URL {
	src = strings.TrimSpace(src)

	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//"):
		return template.URL(src) //nolint:gosec
	case strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "http://"):
		return template.URL(src) //nolint:gosec
	case isImageDataURI(src):
		return template.URL(src) //nolint:gosec
	default:
		return ""
	}
}

func isImageDataURI(src string) bool {
	meta, _, ok := strings.Cut(src, ",")
	if !ok {
		return false
	}

	meta = strings.ToLower(meta)

	for _, typ := range []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/x-icon", "image/vnd.microsoft.icon"} {
		if meta == "data:"+typ+";base64" {
			return true
		}
	}

	return false
}
