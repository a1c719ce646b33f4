/*
Package productdb is a SQLite-backed implementation of
contract.ProductDatabase (spec.md §6): a read-only, dimensioned lookup
over product tables, keyed by a string key plus an optional index tuple
(e.g. "DB_PremTaxLoad" by state), with two side queries — whether a key
varies by state, and whether two keys are the equivalent table under the
product's definition (spec.md §7's "scalar premium-tax load differs from
levy but varies by state" configuration-error example depends on both).

GROUNDED ON:
  store/sqlite/sqlite.go's New/migrate/query-scan conventions: sql.Open
  with a WAL pragma, an idempotent migrate() run unconditionally at
  New(), a sync.RWMutex guarding reads against a single in-flight writer,
  and QueryRow/Scan pairs that check for sql.ErrNoRows explicitly; here
  QueryRaw reports a missing key as an error rather than returning
  (nil, nil). Unlike the teacher's Store, this database is
  read-mostly from the engine's point of view (spec.md §6 calls it a
  "read-only external collaborator"); Put exists only so tests and a
  future loader can populate it, not because the engine ever writes
  through this interface.
*/
package productdb

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soa-illustrations/lmi/currency"
)

// Store is a SQLite-backed contract.ProductDatabase.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if absent) a SQLite product database at dbPath.
// Use ":memory:" for an ephemeral, test-only database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("productdb: open %s: %w", dbPath, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("productdb: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS product_values (
		key        TEXT NOT NULL,
		dims       TEXT NOT NULL DEFAULT '',
		value_type TEXT NOT NULL,
		value_json TEXT NOT NULL,
		PRIMARY KEY (key, dims)
	);

	CREATE TABLE IF NOT EXISTS product_state_variance (
		key             TEXT PRIMARY KEY,
		varies_by_state BOOLEAN NOT NULL
	);

	CREATE TABLE IF NOT EXISTS product_equivalence_classes (
		key   TEXT PRIMARY KEY,
		class TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// valueType tags what QueryRaw should decode value_json back into.
type valueType string

const (
	typeAmount valueType = "amount"
	typeFloat  valueType = "float"
	typeString valueType = "string"
	typeBool   valueType = "bool"
)

func dimsKey(index []any) string {
	if len(index) == 0 {
		return ""
	}
	parts := make([]string, len(index))
	for i, v := range index {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "|")
}

// PutAmount stores a currency-valued row for key, optionally dimensioned
// by index (e.g. a state abbreviation for a premium-tax load).
func (s *Store) PutAmount(key string, amount currency.Amount, index ...any) error {
	return s.put(key, dimsKey(index), typeAmount, amount.String())
}

// PutFloat stores a float-valued row (a rate or factor) for key.
func (s *Store) PutFloat(key string, value float64, index ...any) error {
	return s.put(key, dimsKey(index), typeFloat, fmt.Sprintf("%.10g", value))
}

// PutString stores a string-valued row for key.
func (s *Store) PutString(key, value string, index ...any) error {
	return s.put(key, dimsKey(index), typeString, value)
}

// PutBool stores a boolean-valued row for key.
func (s *Store) PutBool(key string, value bool, index ...any) error {
	return s.put(key, dimsKey(index), typeBool, fmt.Sprintf("%t", value))
}

func (s *Store) put(key, dims string, vt valueType, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO product_values (key, dims, value_type, value_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key, dims) DO UPDATE SET
			value_type = excluded.value_type,
			value_json = excluded.value_json
	`, key, dims, string(vt), raw)
	return err
}

// SetVariesByState records whether key's product table is dimensioned
// by state (spec.md §6's varies_by_state(key)).
func (s *Store) SetVariesByState(key string, varies bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO product_state_variance (key, varies_by_state)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET varies_by_state = excluded.varies_by_state
	`, key, varies)
	return err
}

// SetEquivalenceClass assigns key to an equivalence class; two keys
// AreEquivalent iff they share a class (spec.md §6's are_equivalent(key1,
// key2), used to detect the configuration error of a scalar value that
// disagrees with a by-state table it is supposed to mirror).
func (s *Store) SetEquivalenceClass(key, class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO product_equivalence_classes (key, class)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET class = excluded.class
	`, key, class)
	return err
}

// QueryRaw implements contract.ProductDatabase. It returns the stored
// value for key (and the dimensioning index, if any) as one of
// currency.Amount, float64, string, or bool, matching whichever Put*
// call populated the row.
func (s *Store) QueryRaw(key string, index ...any) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dims := dimsKey(index)
	var vt, raw string
	err := s.db.QueryRow(
		"SELECT value_type, value_json FROM product_values WHERE key = ? AND dims = ?",
		key, dims,
	).Scan(&vt, &raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("productdb: no value for key %q dims %q", key, dims)
	}
	if err != nil {
		return nil, err
	}

	switch valueType(vt) {
	case typeAmount:
		return currency.Parse(raw)
	case typeFloat:
		var f float64
		if _, err := fmt.Sscanf(raw, "%g", &f); err != nil {
			return nil, fmt.Errorf("productdb: malformed float for key %q: %w", key, err)
		}
		return f, nil
	case typeString:
		return raw, nil
	case typeBool:
		return raw == "true", nil
	default:
		return nil, fmt.Errorf("productdb: unknown value type %q for key %q", vt, key)
	}
}

// VariesByState implements contract.ProductDatabase. A key with no
// recorded variance defaults to false (a flat, non-dimensioned table).
func (s *Store) VariesByState(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var varies bool
	err := s.db.QueryRow(
		"SELECT varies_by_state FROM product_state_variance WHERE key = ?", key,
	).Scan(&varies)
	if err != nil {
		return false
	}
	return varies
}

// AreEquivalent implements contract.ProductDatabase: two keys are
// equivalent iff both are assigned to the same non-empty equivalence
// class. A key with no recorded class is equivalent only to itself.
func (s *Store) AreEquivalent(key1, key2 string) bool {
	if key1 == key2 {
		return true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	class1, ok1 := s.classOf(key1)
	class2, ok2 := s.classOf(key2)
	if !ok1 || !ok2 {
		return false
	}
	return class1 == class2
}

func (s *Store) classOf(key string) (string, bool) {
	var class string
	err := s.db.QueryRow(
		"SELECT class FROM product_equivalence_classes WHERE key = ?", key,
	).Scan(&class)
	if err != nil {
		return "", false
	}
	return class, true
}
