// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists article records with their embeddings and answers
// vector-similarity queries. Inserts are idempotent: the database enforces
// uniqueness on (pmid, source_db), so a duplicate insert racing with another
// still leaves exactly one record.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "evidence.db"
)

// ErrUnavailable marks failures where the backing database cannot be
// reached or operated on. Callers surface it; the store never retries.
var ErrUnavailable = errors.New("article store unavailable")

// Store manages the article SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the article database at DataDir/index/evidence.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			pmid TEXT NOT NULL,
			source_db TEXT NOT NULL,
			title TEXT NOT NULL,
			abstract TEXT NOT NULL,
			authors TEXT,
			year TEXT,
			url TEXT,
			source TEXT,
			evidence_tier TEXT NOT NULL,
			query_term TEXT,
			embedding TEXT NOT NULL,
			UNIQUE(pmid, source_db)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_tier ON articles(evidence_tier)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// InsertIfNew persists rec with its embedding unless a record with the same
// (pmid, source_db) already exists. It reports whether the record was
// stored; false means the insert was a no-op on a known identifier.
// The atomicity of INSERT OR IGNORE plus the uniqueness constraint makes
// concurrent duplicate inserts safe.
func (s *Store) InsertIfNew(ctx context.Context, rec types.ArticleRecord, embedding []float64) (bool, error) {
	if rec.PMID == "" {
		return false, fmt.Errorf("inserting article: empty pmid")
	}
	if len(embedding) == 0 {
		return false, fmt.Errorf("inserting article %s: empty embedding", rec.PMID)
	}

	authorsJSON, _ := json.Marshal(rec.Authors)
	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return false, fmt.Errorf("encoding embedding for %s: %w", rec.PMID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO articles
			(pmid, source_db, title, abstract, authors, year, url, source, evidence_tier, query_term, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PMID, rec.SourceDB(), rec.Title, rec.Abstract, string(authorsJSON),
		rec.Year, rec.URL, rec.Source, string(rec.Tier), rec.QueryTerm, string(embeddingJSON),
	)
	if err != nil {
		return false, fmt.Errorf("inserting article %s: %w: %v", rec.PMID, ErrUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting article %s: %w: %v", rec.PMID, ErrUnavailable, err)
	}
	return n > 0, nil
}

// Exists reports whether a record with the given identifier pair is stored.
func (s *Store) Exists(ctx context.Context, pmid, sourceDB string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM articles WHERE pmid = ? AND source_db = ?`, pmid, sourceDB,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking article %s: %w: %v", pmid, ErrUnavailable, err)
	}
	return true, nil
}

// Count returns the number of stored articles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting articles: %w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// QuerySimilar returns the limit nearest articles to queryEmbedding by
// cosine similarity, in descending similarity order. Similarity computation
// runs application-side over all stored embeddings; SQLite has no native
// vector search. Zero stored articles yield an empty result, not an error.
func (s *Store) QuerySimilar(ctx context.Context, queryEmbedding []float64, limit int) ([]types.RankedArticle, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pmid, source_db, title, abstract, authors, year, url, source, evidence_tier, query_term, embedding
		 FROM articles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var ranked []types.RankedArticle
	for rows.Next() {
		var (
			rec           types.ArticleRecord
			sourceDB      string
			tier          string
			authorsJSON   sql.NullString
			embeddingJSON string
		)
		if err := rows.Scan(
			&rec.PMID, &sourceDB, &rec.Title, &rec.Abstract, &authorsJSON,
			&rec.Year, &rec.URL, &rec.Source, &tier, &rec.QueryTerm, &embeddingJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning article row: %w: %v", ErrUnavailable, err)
		}
		rec.Tier = types.EvidenceTier(tier)
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &rec.Authors)
		}

		var embedding []float64
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			// A corrupt embedding makes the record unusable for this
			// query; skip it rather than failing retrieval.
			continue
		}

		ranked = append(ranked, types.RankedArticle{
			ArticleRecord: rec,
			Similarity:    cosineSimilarity(queryEmbedding, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading article rows: %w: %v", ErrUnavailable, err)
	}

	// Stable: ties keep insertion order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths compare over the shorter prefix; zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
