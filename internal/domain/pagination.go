package domain

// WordsPerPage is the fixed page size used for all pagination.
const WordsPerPage = 250

// Pages returns the number of pages needed for wordCount words at perPage
// words per page. A chapter or book with zero words still occupies one page.
// Non-positive perPage falls back to WordsPerPage.
func Pages(wordCount, perPage int) int {
	if perPage <= 0 {
		perPage = WordsPerPage
	}
	pages := (wordCount + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}
