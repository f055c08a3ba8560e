package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/solatis/predicates/internal/rules"
	"github.com/solatis/predicates/internal/types"
)

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// Store persists named rule definitions.
//
// Definitions are stored as submitted (source text plus format) so they can
// be exported unchanged. CreateRule binds a definition before inserting it,
// which keeps invalid rules out of the table; NamedRules binds every row
// again when the engine loads.
type Store struct {
	db      *sqlx.DB
	queries *Queries
}

// NewStore loads the named queries for db.
func NewStore(db *sqlx.DB) (*Store, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, queries: queries}, nil
}

// CreateRule validates and stores a rule definition under name.
// Returns ErrRuleExists if the name is taken, ErrRuleTooLarge for oversized
// sources and ErrShape-wrapped errors for definitions that do not bind.
func (s *Store) CreateRule(ctx context.Context, name string, format types.Format, source []byte) (*types.StoredRule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("rule name must not be empty")
	}
	if len(source) > types.MaxRuleSourceSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", types.ErrRuleTooLarge, len(source), types.MaxRuleSourceSize)
	}
	if _, err := rules.Load(source, format); err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}

	rule := &types.StoredRule{
		RuleID:    types.NewRuleID(),
		Name:      name,
		Format:    format,
		Source:    string(source),
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.queries.Exec(ctx, "create-rule",
		rule.RuleID, rule.Name, rule.Format, rule.Source, rule.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrRuleExists, name)
		}
		return nil, fmt.Errorf("failed to insert rule: %w", err)
	}

	return rule, nil
}

// GetRule returns the stored rule with the given name.
func (s *Store) GetRule(ctx context.Context, name string) (*types.StoredRule, error) {
	var rule types.StoredRule
	if err := s.queries.Get(ctx, "get-rule", &rule, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", types.ErrRuleNotFound, name)
		}
		return nil, fmt.Errorf("failed to query rule: %w", err)
	}
	return &rule, nil
}

// ListRules returns every stored rule ordered by name.
func (s *Store) ListRules(ctx context.Context) ([]types.StoredRule, error) {
	var stored []types.StoredRule
	if err := s.queries.Select(ctx, "list-rules", &stored); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return stored, nil
}

// DeleteRule removes the named rule.
func (s *Store) DeleteRule(ctx context.Context, name string) error {
	result, err := s.queries.Exec(ctx, "delete-rule", name)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, name)
	}
	return nil
}

// NamedRules binds every stored rule for loading into an engine.
// All rows that fail to bind are reported together.
func (s *Store) NamedRules(ctx context.Context) ([]*rules.NamedRule, error) {
	stored, err := s.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	named := make([]*rules.NamedRule, 0, len(stored))
	for _, r := range stored {
		container, err := rules.Load([]byte(r.Source), r.Format)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("rule %s: %w", r.Name, err))
			continue
		}
		named = append(named, &rules.NamedRule{
			RuleID:    r.RuleID,
			Name:      r.Name,
			Container: container,
		})
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return named, nil
}

// isUniqueViolation reports whether err is a unique constraint failure from
// either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
