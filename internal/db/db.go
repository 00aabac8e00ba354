package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// Page is one row of the Wikipedia pages table, the primary source of
// truth for article entities.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	PageID    int64   `bun:"page_id,pk"`
	Title     string  `bun:"title,notnull"`
	URL       string  `bun:"url,nullzero"`
	Extract   string  `bun:"extract,nullzero"`
	Latitude  float64 `bun:"latitude,nullzero"`
	Longitude float64 `bun:"longitude,nullzero"`
	Relevance float64 `bun:"relevance_score,nullzero"`
}

// ArticleSummary is the optional auxiliary row joined to a page for
// article_summary entities.
type ArticleSummary struct {
	bun.BaseModel `bun:"table:article_summaries,alias:s"`

	PageID     int64   `bun:"page_id,pk"`
	Summary    string  `bun:"summary,notnull"`
	KeyTopics  string  `bun:"key_topics,nullzero"`
	BestCity   string  `bun:"best_city,nullzero"`
	Confidence float64 `bun:"confidence,nullzero"`
}

// Connect opens the relational source. A postgres:// DSN uses the pgdriver
// connector; anything else is treated as an embedded SQLite path.
func Connect(dsn string, debug bool) (*bun.DB, error) {
	var sqldb *sql.DB
	var db *bun.DB
	if strings.HasPrefix(dsn, "postgres://") {
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		var err error
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// InitDB creates the source tables if missing. Used by tests and by the
// fixture seeding path; the production tables are written upstream.
func InitDB(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*Page)(nil), (*ArticleSummary)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FetchPage looks up one page by primary key, with its summary row when
// withSummary is set. A missing page returns (nil, nil, nil); a missing
// summary leaves the summary nil.
func FetchPage(ctx context.Context, db *bun.DB, pageID int64, withSummary bool) (*Page, *ArticleSummary, error) {
	page := new(Page)
	err := db.NewSelect().Model(page).Where("p.page_id = ?", pageID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if !withSummary {
		return page, nil, nil
	}
	summary := new(ArticleSummary)
	err = db.NewSelect().Model(summary).Where("s.page_id = ?", pageID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return page, nil, nil
		}
		return nil, nil, err
	}
	return page, summary, nil
}
