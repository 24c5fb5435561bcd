// Package store caches computed results in a sqlite database, keyed by a caller chosen run key.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/condmat/band"
	"github.com/fumin/condmat/tbg"
)

const (
	tablePoints       = "points"
	tableBands        = "bands"
	tableLabels       = "labels"
	tableScans        = "scans"
	tableCorrelations = "correlations"

	writeTimeout = time.Minute
	readTimeout  = 10 * time.Second
)

var schema = []string{
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, k INTEGER, kx REAL, ky REAL, dist REAL, PRIMARY KEY (run, k)) STRICT`, tablePoints),
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, k INTEGER, band INTEGER, energy REAL, PRIMARY KEY (run, k, band)) STRICT`, tableBands),
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, idx INTEGER, name TEXT, PRIMARY KEY (run, idx)) STRICT`, tableLabels),
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, i INTEGER, angle REAL, bandwidth REAL, PRIMARY KEY (run, i)) STRICT`, tableScans),
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, i INTEGER, x REAL, value REAL, PRIMARY KEY (run, i)) STRICT`, tableCorrelations),
}

// DB is a result cache.
type DB struct {
	Path string
	db   *sql.DB
}

// Open opens the database at dbPath, creating it if necessary.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, dbPath)
	}
	return &DB{Path: dbPath, db: db}, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	for _, sqlStr := range schema {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}

func (s *DB) Close() error {
	return s.db.Close()
}

// PutStructure stores a band structure, replacing any previous one under key.
func (s *DB) PutStructure(key string, st band.Structure) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.write(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{tablePoints, tableBands, tableLabels} {
			if err := deleteKey(ctx, tx, table, key); err != nil {
				return errors.Wrap(err, "")
			}
		}

		points := fmt.Sprintf(`INSERT INTO %s (run, k, kx, ky, dist) VALUES (?, ?, ?, ?, ?)`, tablePoints)
		for i, k := range st.Path.Points {
			if _, err := tx.ExecContext(ctx, points, key, i, k[0], k[1], st.Path.Distance[i]); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%s %d", points, i))
			}
		}
		bands := fmt.Sprintf(`INSERT INTO %s (run, k, band, energy) VALUES (?, ?, ?, ?)`, tableBands)
		for i, vals := range st.Energies {
			for b, e := range vals {
				if _, err := tx.ExecContext(ctx, bands, key, i, b, e); err != nil {
					return errors.Wrap(err, fmt.Sprintf("%s %d %d", bands, i, b))
				}
			}
		}
		labels := fmt.Sprintf(`INSERT INTO %s (run, idx, name) VALUES (?, ?, ?)`, tableLabels)
		for _, l := range st.Path.Labels {
			if _, err := tx.ExecContext(ctx, labels, key, l.Index, l.Name); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%s %#v", labels, l))
			}
		}
		return nil
	})
}

// Structure returns the band structure stored under key.
func (s *DB) Structure(key string) (band.Structure, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	var st band.Structure
	sqlStr := fmt.Sprintf(`SELECT kx, ky, dist FROM %s WHERE run=? ORDER BY k`, tablePoints)
	err := query(ctx, s.db, sqlStr, []any{key}, func(rows *sql.Rows) error {
		var k [2]float64
		var d float64
		if err := rows.Scan(&k[0], &k[1], &d); err != nil {
			return errors.Wrap(err, "")
		}
		st.Path.Points = append(st.Path.Points, k)
		st.Path.Distance = append(st.Path.Distance, d)
		return nil
	})
	if err != nil {
		return band.Structure{}, false, errors.Wrap(err, "")
	}
	if len(st.Path.Points) == 0 {
		return band.Structure{}, false, nil
	}

	st.Energies = make([][]float64, len(st.Path.Points))
	sqlStr = fmt.Sprintf(`SELECT k, energy FROM %s WHERE run=? ORDER BY k, band`, tableBands)
	err = query(ctx, s.db, sqlStr, []any{key}, func(rows *sql.Rows) error {
		var i int
		var e float64
		if err := rows.Scan(&i, &e); err != nil {
			return errors.Wrap(err, "")
		}
		if i < 0 || i >= len(st.Energies) {
			return errors.Errorf("k-point %d of %d", i, len(st.Energies))
		}
		st.Energies[i] = append(st.Energies[i], e)
		return nil
	})
	if err != nil {
		return band.Structure{}, false, errors.Wrap(err, "")
	}

	sqlStr = fmt.Sprintf(`SELECT idx, name FROM %s WHERE run=? ORDER BY idx`, tableLabels)
	err = query(ctx, s.db, sqlStr, []any{key}, func(rows *sql.Rows) error {
		var l band.Label
		if err := rows.Scan(&l.Index, &l.Name); err != nil {
			return errors.Wrap(err, "")
		}
		st.Path.Labels = append(st.Path.Labels, l)
		return nil
	})
	if err != nil {
		return band.Structure{}, false, errors.Wrap(err, "")
	}
	return st, true, nil
}

// PutScan stores the bandwidths of an angle scan.
func (s *DB) PutScan(key string, r tbg.ScanResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.write(ctx, func(tx *sql.Tx) error {
		if err := deleteKey(ctx, tx, tableScans, key); err != nil {
			return errors.Wrap(err, "")
		}
		sqlStr := fmt.Sprintf(`INSERT INTO %s (run, i, angle, bandwidth) VALUES (?, ?, ?, ?)`, tableScans)
		for i, angle := range r.Angles {
			if _, err := tx.ExecContext(ctx, sqlStr, key, i, angle, r.Bandwidths[i]); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%s %d", sqlStr, i))
			}
		}
		return nil
	})
}

// Scan returns the angle scan stored under key, with its magic angle recomputed.
func (s *DB) Scan(key string) (tbg.ScanResult, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	var r tbg.ScanResult
	sqlStr := fmt.Sprintf(`SELECT angle, bandwidth FROM %s WHERE run=? ORDER BY i`, tableScans)
	err := query(ctx, s.db, sqlStr, []any{key}, func(rows *sql.Rows) error {
		var angle, bw float64
		if err := rows.Scan(&angle, &bw); err != nil {
			return errors.Wrap(err, "")
		}
		r.Angles = append(r.Angles, angle)
		r.Bandwidths = append(r.Bandwidths, bw)
		return nil
	})
	if err != nil {
		return tbg.ScanResult{}, false, errors.Wrap(err, "")
	}
	if len(r.Angles) == 0 {
		return tbg.ScanResult{}, false, nil
	}
	idx := floats.MinIdx(r.Bandwidths)
	r.MagicAngle, r.MinBandwidth = r.Angles[idx], r.Bandwidths[idx]
	return r, true, nil
}

// PutSeries stores the values y at x, such as a correlation function against distance or coupling.
func (s *DB) PutSeries(key string, x, y []float64) error {
	if len(x) != len(y) {
		return errors.Errorf("%d x %d y", len(x), len(y))
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.write(ctx, func(tx *sql.Tx) error {
		if err := deleteKey(ctx, tx, tableCorrelations, key); err != nil {
			return errors.Wrap(err, "")
		}
		sqlStr := fmt.Sprintf(`INSERT INTO %s (run, i, x, value) VALUES (?, ?, ?, ?)`, tableCorrelations)
		for i := range x {
			if _, err := tx.ExecContext(ctx, sqlStr, key, i, x[i], y[i]); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%s %d", sqlStr, i))
			}
		}
		return nil
	})
}

// Series returns the series stored under key.
func (s *DB) Series(key string) ([]float64, []float64, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	x, y := make([]float64, 0), make([]float64, 0)
	sqlStr := fmt.Sprintf(`SELECT x, value FROM %s WHERE run=? ORDER BY i`, tableCorrelations)
	err := query(ctx, s.db, sqlStr, []any{key}, func(rows *sql.Rows) error {
		var xi, yi float64
		if err := rows.Scan(&xi, &yi); err != nil {
			return errors.Wrap(err, "")
		}
		x, y = append(x, xi), append(y, yi)
		return nil
	})
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "")
	}
	if len(x) == 0 {
		return nil, nil, false, nil
	}
	return x, y, true, nil
}

func (s *DB) write(ctx context.Context, f func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := f(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, fmt.Sprintf("db %s", s.Path))
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, fmt.Sprintf("db %s", s.Path))
	}
	return nil
}

func query(ctx context.Context, db *sql.DB, sqlStr string, args []any, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return errors.Wrap(err, sqlStr)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, sqlStr)
	}
	return nil
}

func deleteKey(ctx context.Context, tx *sql.Tx, table, key string) error {
	sqlStr := fmt.Sprintf(`DELETE FROM %s WHERE run=?`, table)
	if _, err := tx.ExecContext(ctx, sqlStr, key); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %s", sqlStr, key))
	}
	return nil
}
