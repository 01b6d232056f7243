// Package document gives the extraction pipeline plain-text and table views
// over uploaded agenda/manifest bytes. It knows nothing about the clinical
// row layout; that lives in internal/extract.
package document

import "github.com/mi4u/lembrete-api/internal/entity"

// Access is the read surface the extractors consume: the document's full
// plain text and its tables as rectangular cell grids, in document order.
type Access interface {
	Text() string
	Tables() []entity.Table
}
