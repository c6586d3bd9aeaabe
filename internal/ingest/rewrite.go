package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// imgStyle constrains images to the available rendering width while
// preserving aspect ratio.
const imgStyle = "max-width: 100%; height: auto;"

// RewriteImages rewrites every image reference in a markup fragment to its
// externally addressable resource path for the given book, with a client-side
// fallback to the sanitized path alias. The fragment's structure is preserved;
// only reference-bearing attributes change.
//
// References already pointing under the resource route are left untouched, so
// applying the rewrite to its own output is a no-op.
func RewriteImages(bookID, fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	rewriteImages(bookID, doc.Selection)
	return doc.Find("body").Html()
}

// rewriteImages applies the reference rewrite to every img element under sel.
func rewriteImages(bookID string, sel *goquery.Selection) {
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}
		// Already rewritten; deriving aliases from an internal path would
		// produce a different alias than the source did.
		if strings.HasPrefix(src, resourceRoutePrefix) {
			return
		}

		original, sanitized := Aliases(src)
		img.SetAttr("src", ResourcePath(bookID, original))
		img.SetAttr("onerror", "this.onerror=null;this.src='"+ResourcePath(bookID, sanitized)+"'")
		img.SetAttr("style", imgStyle)
	})
}
