package database

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SeedToxicTerms downloads a newline separated term list from listURL and
// stores it in toxic_terms. It does nothing when listURL is empty or the
// table already holds terms from that source.
func (db *DB) SeedToxicTerms(ctx context.Context, listURL string, logger *zap.Logger) error {
	if listURL == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM toxic_terms WHERE source = ?", listURL).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check toxic terms count: %w", err)
	}
	if count > 0 {
		logger.Info("toxic term list already populated", zap.Int("terms", count))
		return nil
	}

	logger.Info("downloading toxic term list", zap.String("url", listURL))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build toxic terms request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download toxic terms list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status code from toxic terms URL: %d", resp.StatusCode)
	}

	var terms []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if term := strings.TrimSpace(strings.ToLower(scanner.Text())); term != "" {
			terms = append(terms, term)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading toxic terms: %w", err)
	}

	added, err := db.InsertToxicTerms(ctx, terms, listURL)
	if err != nil {
		return err
	}

	logger.Info("toxic term list populated", zap.Int("terms", added))
	return nil
}

// InsertToxicTerms stores terms in bulk, skipping ones already present
func (db *DB) InsertToxicTerms(ctx context.Context, terms []string, source string) (int, error) {
	added := 0
	err := db.WithinTx(ctx, func(tx *Tx) error {
		query := db.Dialect.InsertIgnore("toxic_terms", []string{"term", "source", "created_at"})
		stmt, err := tx.PrepareContext(ctx, db.Dialect.RewriteQuery(query))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		now := Timestamp(time.Now())
		for _, term := range terms {
			result, err := stmt.ExecContext(ctx, term, source, now)
			if err != nil {
				return fmt.Errorf("failed to insert toxic term: %w", err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				added++
			}
		}
		return nil
	})
	return added, err
}

// ToxicTerms returns every stored term
func (db *DB) ToxicTerms(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT term FROM toxic_terms ORDER BY term")
	if err != nil {
		return nil, fmt.Errorf("failed to query toxic terms: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("failed to scan toxic term: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}
