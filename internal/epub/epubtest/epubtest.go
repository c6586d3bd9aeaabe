// Package epubtest builds minimal EPUB archives in memory for use in tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// ManifestEntry describes one content file of a test book.
type ManifestEntry struct {
	// Path is the archive-internal path, relative to OEBPS/.
	Path      string
	MediaType string
	Content   []byte
	// Spine marks the entry as part of the reading order.
	Spine bool
}

// Archive builds an EPUB ZIP with the given metadata and entries and returns
// its raw bytes. The OPF lives at OEBPS/content.opf; entry paths are relative
// to OEBPS/.
func Archive(t *testing.T, title, author string, entries []ManifestEntry) []byte {
	t.Helper()

	var opf strings.Builder
	opf.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
`)
	if title != "" {
		fmt.Fprintf(&opf, "    <dc:title>%s</dc:title>\n", title)
	}
	if author != "" {
		fmt.Fprintf(&opf, "    <dc:creator>%s</dc:creator>\n", author)
	}
	opf.WriteString("  </metadata>\n  <manifest>\n")
	for i, e := range entries {
		fmt.Fprintf(&opf, "    <item id=\"item%d\" href=\"%s\" media-type=\"%s\"/>\n", i, e.Path, e.MediaType)
	}
	opf.WriteString("  </manifest>\n  <spine>\n")
	for i, e := range entries {
		if e.Spine {
			fmt.Fprintf(&opf, "    <itemref idref=\"item%d\"/>\n", i)
		}
	}
	opf.WriteString("  </spine>\n</package>\n")

	files := map[string][]byte{
		"META-INF/container.xml": []byte(`<?xml version="1.0" encoding="utf-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`),
		"OEBPS/content.opf": []byte(opf.String()),
	}
	for _, e := range entries {
		files["OEBPS/"+e.Path] = e.Content
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	// Mimetype must be the first entry and stored uncompressed.
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("epubtest: create mimetype: %v", err)
	}
	if _, err := mt.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("epubtest: write mimetype: %v", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("epubtest: create %s: %v", name, err)
		}
		if _, err := fw.Write(files[name]); err != nil {
			t.Fatalf("epubtest: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("epubtest: close writer: %v", err)
	}
	return buf.Bytes()
}

// ArchiveFile writes a test EPUB to a temporary file and returns its path.
func ArchiveFile(t *testing.T, title, author string, entries []ManifestEntry) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, Archive(t, title, author, entries), 0o644); err != nil {
		t.Fatalf("epubtest: write archive: %v", err)
	}
	return fp
}

// Doc wraps body markup in a minimal XHTML document with the given head title.
func Doc(headTitle, body string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>%s</title></head><body>%s</body></html>`,
		headTitle, body))
}

// PNG returns a tiny valid-prefix PNG payload for resource tests.
func PNG() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
}

// JPEG returns a tiny valid-prefix JPEG payload for resource tests.
func JPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
}
