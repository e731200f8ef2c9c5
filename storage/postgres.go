package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"printscout/models"
	"printscout/taxonomy"
)

// Store is one pipeline's connection to PostgreSQL. Concurrent pipelines
// each open their own Store; cross-process dedup is guaranteed by the
// unique constraint on Model."sourceUrl".
type Store struct {
	db *sql.DB
}

// NewStore opens a connection, waiting briefly for the database to come
// up, and ensures the schema exists.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS "SourceSite" (
			id   SERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			url  TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS "Category" (
			id   SERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS "SubCategory" (
			id           SERIAL PRIMARY KEY,
			name         TEXT UNIQUE NOT NULL,
			"categoryId" INTEGER NOT NULL REFERENCES "Category"(id)
		);

		CREATE TABLE IF NOT EXISTS "Model" (
			id              TEXT PRIMARY KEY,
			"sourceSiteId"  INTEGER NOT NULL REFERENCES "SourceSite"(id),
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			"categoryId"    INTEGER NOT NULL REFERENCES "Category"(id),
			"subCategoryId" INTEGER NOT NULL REFERENCES "SubCategory"(id),
			tags            TEXT[] NOT NULL DEFAULT '{}',
			"sourceUrl"     TEXT UNIQUE NOT NULL,
			"thumbnailUrl"  TEXT NOT NULL DEFAULT '',
			"imagesUrl"     JSONB NOT NULL DEFAULT '[]',
			price           TEXT NOT NULL DEFAULT '',
			"priceValue"    NUMERIC,
			"createdAt"     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt"     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_model_source_site ON "Model"("sourceSiteId");
		CREATE INDEX IF NOT EXISTS idx_model_category    ON "Model"("categoryId");
	`)
	return err
}

// SeedTaxonomy inserts the category/subcategory vocabulary and the
// reserved Other pair. Existing rows are left alone.
func (s *Store) SeedTaxonomy(tax *taxonomy.Taxonomy) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: seed taxonomy: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := func(sub, cat string) error {
		if _, err := tx.Exec(
			`INSERT INTO "Category" (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, cat); err != nil {
			return err
		}
		_, err := tx.Exec(`
			INSERT INTO "SubCategory" (name, "categoryId")
			SELECT $1, id FROM "Category" WHERE name = $2
			ON CONFLICT (name) DO NOTHING`, sub, cat)
		return err
	}

	for _, sub := range tax.Subcategories() {
		cat, _ := tax.Resolve(sub)
		if err := insert(sub, cat); err != nil {
			return fmt.Errorf("postgres: seed taxonomy: %w", err)
		}
	}
	if err := insert(taxonomy.Other, taxonomy.Other); err != nil {
		return fmt.Errorf("postgres: seed taxonomy: %w", err)
	}

	return tx.Commit()
}

// SeedSourceSite registers a platform by name if it is not present yet.
func (s *Store) SeedSourceSite(name, url string) error {
	_, err := s.db.Exec(
		`INSERT INTO "SourceSite" (name, url) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, url)
	if err != nil {
		return fmt.Errorf("postgres: seed source site %q: %w", name, err)
	}
	return nil
}

// LoadTaxonomy reads the persisted vocabulary back as a Taxonomy: the
// DB-backed alternative to taxonomy.Static for deployments that manage
// categories in the database.
func (s *Store) LoadTaxonomy() (*taxonomy.Taxonomy, error) {
	rows, err := s.db.Query(`
		SELECT sc.name, c.name
		FROM "SubCategory" sc
		JOIN "Category" c ON c.id = sc."categoryId"
		ORDER BY sc.id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load taxonomy: %w", err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var sub, cat string
		if err := rows.Scan(&sub, &cat); err != nil {
			return nil, fmt.Errorf("postgres: load taxonomy: %w", err)
		}
		if sub == taxonomy.Other {
			continue
		}
		pairs = append(pairs, [2]string{sub, cat})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load taxonomy: %w", err)
	}

	return taxonomy.FromPairs(pairs), nil
}

// URLExists is the dedup pre-filter called while collecting candidates.
func (s *Store) URLExists(sourceURL string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM "Model" WHERE "sourceUrl" = $1`, sourceURL).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: url exists: %w", err)
	}
	return true, nil
}

func (s *Store) lookupID(query, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(query, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("postgres: %q not found", name)
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: lookup %q: %w", name, err)
	}
	return id, nil
}

// SourceSiteID resolves a platform name to its id.
func (s *Store) SourceSiteID(name string) (int64, error) {
	return s.lookupID(`SELECT id FROM "SourceSite" WHERE name = $1`, name)
}

// CategoryID resolves a category name to its id.
func (s *Store) CategoryID(name string) (int64, error) {
	return s.lookupID(`SELECT id FROM "Category" WHERE name = $1`, name)
}

// SubCategoryID resolves a subcategory name to its id.
func (s *Store) SubCategoryID(name string) (int64, error) {
	return s.lookupID(`SELECT id FROM "SubCategory" WHERE name = $1`, name)
}

// GenerateModelID returns a fresh record id, re-rolling on the (remote)
// chance an existing row already carries it.
func (s *Store) GenerateModelID() (string, error) {
	for {
		id := uuid.NewString()

		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM "Model" WHERE id = $1`, id).Scan(&count); err != nil {
			return "", fmt.Errorf("postgres: generate id: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
}

// InsertModel writes one row inside a transaction. A duplicate sourceUrl
// is a silent no-op (false, nil); any other failure rolls back.
func (s *Store) InsertModel(m *models.Model) (bool, error) {
	imagesJSON, err := json.Marshal(m.Images)
	if err != nil {
		return false, fmt.Errorf("postgres: marshal images: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.Exec(`
		INSERT INTO "Model" (
			id, "sourceSiteId", title, description, "categoryId", "subCategoryId",
			tags, "sourceUrl", "thumbnailUrl", "imagesUrl", price, "priceValue",
			"createdAt", "updatedAt"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT ("sourceUrl") DO NOTHING`,
		m.ID, m.SourceSiteID, m.Title, m.Description, m.CategoryID, m.SubCategoryID,
		pq.Array(m.Tags), m.SourceURL, m.ThumbnailURL, imagesJSON, m.Price, m.PriceValue,
		now, now,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: insert model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("postgres: commit: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
