// internal/types/rules.go
package types

import "time"

/*
 * Domain types for field path resolution and rule persistence.
 *
 * PathSegment is the parsed form of one component of a field path such as
 * "user.tags[0]". The rule engine parses path text into segments once per
 * resolution; segments carry either a mapping key or a sequence index.
 *
 * StoredRule is the row shape of the rules table: the raw definition text
 * plus its format. Definitions are bound again whenever they are loaded.
 *
 * Dependencies: time
 */

// PathSegment represents one component of a field path.
// Key for mapping lookups, Index for sequence lookups.
type PathSegment struct {
	Key     string // mapping key (mutually exclusive with Index)
	Index   int    // sequence index (mutually exclusive with Key)
	IsIndex bool   // disambiguates Index=0 from unset
}

// StoredRule is a persisted rule definition before binding.
type StoredRule struct {
	RuleID    RuleID    `db:"rule_id"`
	Name      string    `db:"name"`
	Format    Format    `db:"format"`
	Source    string    `db:"source"`
	CreatedAt time.Time `db:"created_at"`
}
