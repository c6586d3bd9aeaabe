package ingest

import (
	"log/slog"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/epub"
)

// ExtractResources pulls every image item out of the archive manifest and
// returns resource rows keyed by the aliases a renderer might use.
//
// Each image is stored under its original alias unconditionally (a later item
// with the same basename overwrites an earlier one), and additionally under
// its sanitized path alias when that differs and is not already taken.
// Items whose content cannot be read are skipped; a single bad resource must
// not abort ingestion of an otherwise valid book.
func ExtractResources(bookID string, book *epub.Book, logger *slog.Logger) []domain.Resource {
	byAlias := make(map[string]int)
	var rows []domain.Resource

	put := func(alias string, payload []byte, overwrite bool) {
		if alias == "" {
			return
		}
		if i, ok := byAlias[alias]; ok {
			if overwrite {
				rows[i].Payload = payload
			}
			return
		}
		byAlias[alias] = len(rows)
		rows = append(rows, domain.Resource{BookID: bookID, Alias: alias, Payload: payload})
	}

	for _, item := range book.Items() {
		if item.Kind != epub.ItemImage {
			continue
		}

		payload, err := item.Content()
		if err != nil {
			if logger != nil {
				logger.Warn("Skipping unreadable image resource", "item", item.Name, "error", err)
			}
			continue
		}

		original, sanitized := Aliases(item.Name)
		put(original, payload, true)
		if sanitized != original {
			put(sanitized, payload, false)
		}
	}

	return rows
}
