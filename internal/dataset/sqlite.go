package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sagepoint/homepricing/internal/valuation"
)

// ErrEmptyStore is returned by Load when no dataset has been cached yet.
var ErrEmptyStore = errors.New("dataset store is empty")

// Store caches the normalized dataset in SQLite with write-through
// semantics: Put replaces the cached copy atomically, Load serves reads
// without touching the original JSON files. It implements the same
// loading interface as Loader, so the HTTP layer can serve from either.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

const datasetSchema = `
CREATE TABLE IF NOT EXISTS subject (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	address        TEXT NOT NULL DEFAULT '',
	latitude       REAL NOT NULL DEFAULT 0,
	longitude      REAL NOT NULL DEFAULT 0,
	square_footage INTEGER NOT NULL DEFAULT 0,
	bedrooms       INTEGER NOT NULL DEFAULT 0,
	bathrooms      REAL NOT NULL DEFAULT 0,
	year_built     INTEGER NOT NULL DEFAULT 0,
	pool           INTEGER NOT NULL DEFAULT 0,
	garage         INTEGER NOT NULL DEFAULT 0,
	lot_size       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transcript (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	body TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS comparables (
	position        INTEGER PRIMARY KEY,
	address         TEXT NOT NULL DEFAULT '',
	latitude        REAL NOT NULL DEFAULT 0,
	longitude       REAL NOT NULL DEFAULT 0,
	square_footage  INTEGER NOT NULL DEFAULT 0,
	bedrooms        INTEGER NOT NULL DEFAULT 0,
	bathrooms       REAL NOT NULL DEFAULT 0,
	year_built      INTEGER NOT NULL DEFAULT 0,
	pool            INTEGER NOT NULL DEFAULT 0,
	garage          INTEGER NOT NULL DEFAULT 0,
	lot_size        INTEGER NOT NULL DEFAULT 0,
	sale_price      REAL NOT NULL DEFAULT 0,
	sale_date       TEXT NOT NULL DEFAULT '',
	days_since_sale INTEGER NOT NULL DEFAULT 0
);
`

func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(datasetSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put replaces the cached dataset in one transaction.
func (s *Store) Put(ds *Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"subject", "transcript", "comparables"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	sub := ds.Subject
	if _, err := tx.Exec(`INSERT INTO subject (id, address, latitude, longitude, square_footage, bedrooms, bathrooms, year_built, pool, garage, lot_size)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Address, sub.Latitude, sub.Longitude, sub.SquareFootage, sub.Bedrooms, sub.Bathrooms,
		sub.YearBuilt, boolToInt(sub.Pool), boolToInt(sub.Garage), sub.LotSize,
	); err != nil {
		return fmt.Errorf("save subject: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO transcript (id, body) VALUES (1, ?)`, ds.Transcript); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	for i, c := range ds.Comparables {
		if _, err := tx.Exec(`INSERT INTO comparables (position, address, latitude, longitude, square_footage, bedrooms, bathrooms, year_built, pool, garage, lot_size, sale_price, sale_date, days_since_sale)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, c.Address, c.Latitude, c.Longitude, c.SquareFootage, c.Bedrooms, c.Bathrooms,
			c.YearBuilt, boolToInt(c.Pool), boolToInt(c.Garage), c.LotSize,
			c.SalePrice, c.SaleDate, c.DaysSinceSale,
		); err != nil {
			return fmt.Errorf("save comparable %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Load reads the cached dataset back. ErrEmptyStore when Put has never
// run against this database.
func (s *Store) Load() (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := &Dataset{}

	var pool, garage int
	row := s.db.QueryRow(`SELECT address, latitude, longitude, square_footage, bedrooms, bathrooms, year_built, pool, garage, lot_size FROM subject WHERE id = 1`)
	if err := row.Scan(&ds.Subject.Address, &ds.Subject.Latitude, &ds.Subject.Longitude,
		&ds.Subject.SquareFootage, &ds.Subject.Bedrooms, &ds.Subject.Bathrooms,
		&ds.Subject.YearBuilt, &pool, &garage, &ds.Subject.LotSize); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmptyStore
		}
		return nil, fmt.Errorf("load subject: %w", err)
	}
	ds.Subject.Pool = pool != 0
	ds.Subject.Garage = garage != 0

	if err := s.db.QueryRow(`SELECT body FROM transcript WHERE id = 1`).Scan(&ds.Transcript); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	rows, err := s.db.Query(`SELECT address, latitude, longitude, square_footage, bedrooms, bathrooms, year_built, pool, garage, lot_size, sale_price, sale_date, days_since_sale
		FROM comparables ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load comparables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c valuation.ComparableSale
		var cPool, cGarage int
		if err := rows.Scan(&c.Address, &c.Latitude, &c.Longitude, &c.SquareFootage,
			&c.Bedrooms, &c.Bathrooms, &c.YearBuilt, &cPool, &cGarage, &c.LotSize,
			&c.SalePrice, &c.SaleDate, &c.DaysSinceSale); err != nil {
			return nil, fmt.Errorf("scan comparable: %w", err)
		}
		c.Pool = cPool != 0
		c.Garage = cGarage != 0
		ds.Comparables = append(ds.Comparables, c)
	}
	return ds, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
