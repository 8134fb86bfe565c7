// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code, NO external dependencies - just pure business logic.
package usecases

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
	"github.com/0xcro3dile/campuschat-go/internal/domain/ports"
)

const (
	// chunkCharCap bounds each retrieved chunk's contribution to the context.
	chunkCharCap = 2000
	// contextCharCap bounds the joined context as a whole.
	contextCharCap = 8000
	// maxCitations bounds the Sources block.
	maxCitations = 5

	contextSeparator = "\n\n---\n\n"
)

// AssembleContext builds a bounded context and citation set from search hits.
// Sentinel hits are skipped. Chunks join in similarity-rank order and the
// global cap cuts left-to-right, so the highest ranked chunks survive.
// Citation urls are deduplicated preserving first-seen order.
func AssembleContext(hits []entities.SearchHit, meta ports.MetadataStore) (*entities.RetrievedContext, error) {
	rc := &entities.RetrievedContext{}
	seen := make(map[string]bool)

	for _, h := range hits {
		if h.ID == entities.SentinelID {
			continue
		}
		m, err := meta.Get(h.ID)
		if err != nil {
			return nil, fmt.Errorf("loading chunk %d metadata: %w", h.ID, err)
		}
		rc.Chunks = append(rc.Chunks, truncate(m.Text, chunkCharCap))
		if m.URL != "" && !seen[m.URL] && len(rc.Sources) < maxCitations {
			seen[m.URL] = true
			rc.Sources = append(rc.Sources, m.URL)
		}
	}

	rc.Joined = truncate(strings.Join(rc.Chunks, contextSeparator), contextCharCap)
	return rc, nil
}

// truncate cuts s after at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
