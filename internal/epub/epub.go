// Package epub reads EPUB archives: it parses the container and OPF package
// and exposes the manifest as typed items plus the spine as a reading order.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidArchive indicates the file is not a readable EPUB archive.
var ErrInvalidArchive = fmt.Errorf("invalid epub archive")

// maxDecompressSize is the maximum allowed decompressed size for a single
// ZIP entry, guarding against zip bombs.
const maxDecompressSize int64 = 256 << 20

// containerPath is the well-known location of container.xml in an EPUB archive.
const containerPath = "META-INF/container.xml"

// Book is a parsed EPUB archive: metadata, the manifest, and the spine.
//
// A Book is not safe for concurrent use by multiple goroutines.
type Book struct {
	// Title is the first dc:title, or empty when the OPF declares none.
	Title string
	// Author is the first dc:creator, or empty when the OPF declares none.
	Author string

	items        []*Item
	itemsByName  map[string]*Item
	readingOrder []*Item

	closer io.Closer
}

// Open opens an EPUB file at the given path.
// The caller must call Close when done reading from the book.
func Open(name string) (*Book, error) {
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, ErrInvalidArchive)
	}

	b, err := parse(&zrc.Reader)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	b.closer = zrc
	return b, nil
}

// NewReader creates a Book from an io.ReaderAt with the given size.
// The caller is responsible for the lifetime of r.
func NewReader(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", ErrInvalidArchive)
	}
	return parse(zr)
}

// Close releases the underlying archive handle.
func (b *Book) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// Items returns every manifest item in declaration order.
func (b *Book) Items() []*Item {
	return b.items
}

// ReadingOrder returns the spine's document items in reading order.
// Spine entries that reference a missing or non-document manifest item
// are omitted.
func (b *Book) ReadingOrder() []*Item {
	return b.readingOrder
}

// Item returns the manifest item with the given archive-internal name,
// or nil if no such item exists.
func (b *Book) Item(name string) *Item {
	return b.itemsByName[name]
}

// parse reads the container and OPF and builds the manifest and spine.
func parse(zr *zip.Reader) (*Book, error) {
	opfPath, err := findOPFPath(zr)
	if err != nil {
		return nil, err
	}

	opfFile := findFile(zr, opfPath)
	if opfFile == nil {
		return nil, fmt.Errorf("package document %s missing: %w", opfPath, ErrInvalidArchive)
	}
	opfData, err := readZipFile(opfFile)
	if err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(stripBOM(opfData), &pkg); err != nil {
		return nil, fmt.Errorf("parse package document: %w", ErrInvalidArchive)
	}

	b := &Book{
		Title:       firstValue(pkg.Metadata.Titles),
		Author:      firstValue(pkg.Metadata.Creators),
		itemsByName: make(map[string]*Item, len(pkg.Manifest.Items)),
	}

	// Build the manifest. Hrefs resolve relative to the OPF directory;
	// entries that escape the archive root are dropped.
	byID := make(map[string]*Item, len(pkg.Manifest.Items))
	for _, mi := range pkg.Manifest.Items {
		name := resolveHref(opfPath, mi.Href)
		if name == "" {
			continue
		}
		f := findFile(zr, name)
		if f == nil {
			continue
		}
		item := &Item{
			Name:      name,
			MediaType: strings.TrimSpace(mi.MediaType),
			Kind:      kindForMediaType(strings.TrimSpace(mi.MediaType)),
			file:      f,
		}
		b.items = append(b.items, item)
		b.itemsByName[name] = item
		if mi.ID != "" {
			byID[mi.ID] = item
		}
	}

	// Build the reading order from the spine. Only document items can be
	// read as chapters; a spine entry pointing at an image or other binary
	// item is dropped.
	for _, ref := range pkg.Spine.ItemRefs {
		if item, ok := byID[ref.IDRef]; ok && item.Kind == ItemDocument {
			b.readingOrder = append(b.readingOrder, item)
		}
	}

	return b, nil
}

// findOPFPath locates the OPF via META-INF/container.xml, falling back to
// scanning the archive for the first ".opf" entry.
func findOPFPath(zr *zip.Reader) (string, error) {
	if f := findFile(zr, containerPath); f != nil {
		data, err := readZipFile(f)
		if err != nil {
			return "", fmt.Errorf("read container.xml: %w", err)
		}

		var c containerXML
		if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
			return "", fmt.Errorf("parse container.xml: %w", ErrInvalidArchive)
		}
		for _, rf := range c.RootFiles {
			if p := strings.TrimSpace(rf.FullPath); p != "" {
				return p, nil
			}
		}
	}

	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("no package document found: %w", ErrInvalidArchive)
}

// resolveHref resolves an OPF manifest href relative to the OPF directory.
// Returns "" for absolute hrefs or paths that escape the archive root.
func resolveHref(opfPath, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "/") || strings.Contains(href, "://") {
		return ""
	}
	// Drop fragments; manifest hrefs should not carry them, but be lenient.
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	cleaned := path.Clean(path.Join(path.Dir(opfPath), href))
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return ""
	}
	return cleaned
}

// findFile looks up a ZIP entry by path, first exact, then case-insensitive.
func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	lower := strings.ToLower(name)
	for _, f := range zr.File {
		if strings.ToLower(f.Name) == lower {
			return f
		}
	}
	return nil
}

// readZipFile reads a single ZIP entry, enforcing the decompression ceiling.
func readZipFile(f *zip.File) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("missing archive entry")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDecompressSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(data)) > maxDecompressSize {
		return nil, fmt.Errorf("entry %s exceeds decompression limit", f.Name)
	}
	return data, nil
}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// firstValue returns the first non-empty trimmed value from dc elements.
func firstValue(elems []opfDCElement) string {
	for _, e := range elems {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}
