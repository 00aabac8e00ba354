package sourcedata

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"realty-rag/internal/db"
)

// ArticleLoader resolves page identifiers against the relational source:
// the pages table plus, when withSummary is set, the joined
// article_summaries row.
type ArticleLoader struct {
	cache       *Cache
	db          *bun.DB
	withSummary bool
}

// NewArticleLoader creates a loader over an already-connected handle.
func NewArticleLoader(cache *Cache, bunDB *bun.DB, withSummary bool) *ArticleLoader {
	return &ArticleLoader{cache: cache, db: bunDB, withSummary: withSummary}
}

// Lookup returns the page record for id. An identifier that does not
// parse as a page id is a plain not-found, and a query failure is logged
// and downgraded to a miss for this lookup.
func (l *ArticleLoader) Lookup(ctx context.Context, id string) (Record, bool) {
	if rec, ok := l.cache.Get(id); ok {
		return rec, true
	}
	pageID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, false
	}
	page, summary, err := db.FetchPage(ctx, l.db, pageID, l.withSummary)
	if err != nil {
		log.Warn().Err(err).Str("page_id", id).Msg("Page lookup failed")
		return nil, false
	}
	if page == nil {
		return nil, false
	}
	rec := pageRecord(page, summary)
	l.cache.Put(id, rec)
	return rec, true
}

func pageRecord(page *db.Page, summary *db.ArticleSummary) Record {
	rec := Record{
		"page_id": page.PageID,
		"title":   page.Title,
	}
	if page.URL != "" {
		rec["url"] = page.URL
	}
	if page.Extract != "" {
		rec["extract"] = page.Extract
	}
	if page.Latitude != 0 || page.Longitude != 0 {
		rec["latitude"] = page.Latitude
		rec["longitude"] = page.Longitude
	}
	if page.Relevance != 0 {
		rec["relevance_score"] = page.Relevance
	}
	if summary != nil {
		rec["summary"] = summary.Summary
		if summary.KeyTopics != "" {
			rec["key_topics"] = summary.KeyTopics
		}
		if summary.BestCity != "" {
			rec["best_city"] = summary.BestCity
		}
		if summary.Confidence != 0 {
			rec["confidence"] = summary.Confidence
		}
	}
	return rec
}
