// Package head applies resolved site settings to rendered HTML documents.
package head

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// isIconLink reports whether n is a <link> whose rel contains the token "icon".
func isIconLink(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Link {
		return false
	}

	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "rel") {
			for _, token := range strings.Fields(a.Val) {
				if strings.EqualFold(token, "icon") {
					return true
				}
			}
		}
	}

	return false
}

func findHead(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Head {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := findHead(c); h != nil {
			return h
		}
	}

	return nil
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, key) {
			n.Attr[i].Val = val

			return
		}
	}

	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// ApplyFavicon points every icon link in the document head at href. When the
// head has none, one <link rel="icon"> is appended. Calling it again with the
// same href leaves the document unchanged. Documents without a head are left alone.
func ApplyFavicon(doc *html.Node, href string) {
	head := findHead(doc)
	if head == nil {
		return
	}

	found := false

	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if isIconLink(c) {
			setAttr(c, "href", href)

			found = true
		}
	}

	if found {
		return
	}

	head.AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     "link",
		DataAtom: atom.Link,
		Attr: []html.Attribute{
			{Key: "rel", Val: "icon"},
			{Key: "href", Val: href},
		},
	})
}

// Rewrite parses page, applies the favicon and renders it again.
func Rewrite(page []byte, href string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	ApplyFavicon(doc, href)

	var buf bytes.Buffer
	if err = html.Render(&buf, doc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Middleware applies the favicon returned by current to every successful text/html response.
// The body is left untouched when it can not be rewritten.
func Middleware(current func() string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		if !strings.HasPrefix(string(c.Response().Header.ContentType()), fiber.MIMETextHTML) {
			return nil
		}

		href := current()
		if href == "" {
			return nil
		}

		out, err := Rewrite(c.Response().Body(), href)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Msg("failed to apply favicon")

			return nil
		}

		c.Response().SetBodyRaw(out)

		return nil
	}
}
