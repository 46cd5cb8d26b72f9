// Package search turns structured search requests into search-engine queries
// and search-engine results into candidate records.
//
// Everything here except the Tavily client is a pure function: no network,
// no clock unless injected. That keeps the extraction rules unit-testable.
package search

import (
	"fmt"
	"strings"

	"github.com/sakif/intellicrawl/internal/model"
)

// SiteFilter restricts every query to GitHub.
const SiteFilter = "site:github.com"

// BuildQuery produces the single query string sent to the search API.
//
// Clause order is fixed: text, location, languages, followers. The location
// is quoted; nothing else is escaped and overlapping terms are not deduplicated.
//
//	{Query:"rust devs", Location:"Paris", Languages:["Go","Rust"], MinFollowers:50}
//	→ site:github.com rust devs location:"Paris" language:Go OR language:Rust followers:>=50
func BuildQuery(q model.SearchQuery) string {
	var b strings.Builder
	b.WriteString(SiteFilter)
	b.WriteString(" ")
	b.WriteString(q.Query)

	if q.Location != "" {
		b.WriteString(` location:"`)
		b.WriteString(q.Location)
		b.WriteString(`"`)
	}

	if len(q.Languages) > 0 {
		clauses := make([]string, 0, len(q.Languages))
		for _, lang := range q.Languages {
			clauses = append(clauses, "language:"+lang)
		}
		b.WriteString(" ")
		b.WriteString(strings.Join(clauses, " OR "))
	}

	// Zero is treated as "no threshold".
	if q.MinFollowers != nil && *q.MinFollowers > 0 {
		fmt.Fprintf(&b, " followers:>=%d", *q.MinFollowers)
	}

	return b.String()
}
