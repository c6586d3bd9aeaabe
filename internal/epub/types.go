package epub

import "archive/zip"

// ItemKind classifies a manifest item. The set is closed: ingestion only
// distinguishes readable documents, binary image resources, and everything else.
type ItemKind int

const (
	// ItemOther is any manifest item that is neither a document nor an image
	// (stylesheets, fonts, the NCX, audio, ...).
	ItemOther ItemKind = iota
	// ItemDocument is a readable content document (XHTML/HTML).
	ItemDocument
	// ItemImage is a binary image resource.
	ItemImage
)

// Item is a single entry of the archive manifest. Content is read lazily so
// that one unreadable entry affects only itself.
type Item struct {
	// Name is the archive-internal path of the item, resolved relative to
	// the OPF directory (forward-slash separated).
	Name      string
	MediaType string
	Kind      ItemKind

	file *zip.File
}

// Content reads and returns the item's raw bytes from the archive.
func (it *Item) Content() ([]byte, error) {
	return readZipFile(it.file)
}

// kindForMediaType maps an OPF media-type to an ItemKind.
func kindForMediaType(mediaType string) ItemKind {
	switch {
	case mediaType == "application/xhtml+xml" || mediaType == "text/html":
		return ItemDocument
	case len(mediaType) > 6 && mediaType[:6] == "image/":
		return ItemImage
	default:
		return ItemOther
	}
}
