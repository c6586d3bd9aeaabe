package ingest

import (
	"bytes"
	"testing"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/epub/epubtest"
)

func resourceMap(rows []domain.Resource) map[string][]byte {
	m := make(map[string][]byte, len(rows))
	for _, r := range rows {
		m[r.Alias] = r.Payload
	}
	return m
}

func TestExtractResources_BothAliases(t *testing.T) {
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "images/cover.png", MediaType: "image/png", Content: epubtest.PNG()},
	})
	defer b.Close()

	rows := ExtractResources("book-1", b, nil)

	m := resourceMap(rows)
	if _, ok := m["cover.png"]; !ok {
		t.Error("original basename alias missing")
	}
	if _, ok := m["OEBPS_images_cover.png"]; !ok {
		t.Errorf("sanitized path alias missing, have %v", aliasList(rows))
	}
	for _, r := range rows {
		if r.BookID != "book-1" {
			t.Errorf("book id: got %q", r.BookID)
		}
		if !bytes.Equal(r.Payload, epubtest.PNG()) {
			t.Error("payload mismatch")
		}
	}
}

func TestExtractResources_OriginalAliasOverwrites(t *testing.T) {
	// Two images with the same basename in different directories: the later
	// one wins the basename alias, and each keeps its own path alias.
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "a/pic.png", MediaType: "image/png", Content: epubtest.PNG()},
		{Path: "b/pic.png", MediaType: "image/jpeg", Content: epubtest.JPEG()},
	})
	defer b.Close()

	rows := ExtractResources("book-1", b, nil)
	m := resourceMap(rows)

	if !bytes.Equal(m["pic.png"], epubtest.JPEG()) {
		t.Error("basename alias should hold the last-seen payload")
	}
	if !bytes.Equal(m["OEBPS_a_pic.png"], epubtest.PNG()) {
		t.Error("first path alias should keep its own payload")
	}
	if !bytes.Equal(m["OEBPS_b_pic.png"], epubtest.JPEG()) {
		t.Error("second path alias should keep its own payload")
	}
}

func TestExtractResources_IgnoresNonImages(t *testing.T) {
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "ch.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("c", "<p>x</p>"), Spine: true},
		{Path: "style.css", MediaType: "text/css", Content: []byte("p{}")},
	})
	defer b.Close()

	rows := ExtractResources("book-1", b, nil)
	if len(rows) != 0 {
		t.Errorf("expected no resources, got %v", aliasList(rows))
	}
}

func aliasList(rows []domain.Resource) []string {
	aliases := make([]string, len(rows))
	for i, r := range rows {
		aliases[i] = r.Alias
	}
	return aliases
}
