// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/marquee/pkg/vector"
)

// DefaultFileName is the database file written inside the data directory.
const DefaultFileName = "movie_vectors.db"

// maxKNN is the largest k vec0 accepts in a KNN query.
const maxKNN = 4096

// Driver implements vector.Driver using SQLite with sqlite-vec.
//
// Vectors live in a vec0 virtual table whose rowid is position+1, since vec0
// does not accept a zero rowid. A small meta table records the dimensionality
// so a reopened database knows whether an index has been built.
type Driver struct {
	db     *sql.DB
	logger *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// NewDriver opens (or creates) the database and verifies sqlite-vec is loaded.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			dimensions INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating meta table: %w", err)
	}

	logger.Debug("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Rebuild drops any previous vectors and inserts the given ones in order.
func (d *Driver) Rebuild(ctx context.Context, dimensions int, vectors [][]float32) error {
	if err := vector.CheckVectors(dimensions, vectors); err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS vec_embeddings`); err != nil {
		return fmt.Errorf("dropping vec0 table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE vec_embeddings USING vec0(embedding float[%d])`,
		dimensions,
	)
	if _, err := tx.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range vectors {
		if _, err := stmt.ExecContext(ctx, int64(i)+1, serializeFloat32(v)); err != nil {
			return fmt.Errorf("inserting vector %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_meta(id, dimensions) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET dimensions = excluded.dimensions`,
		dimensions,
	); err != nil {
		return fmt.Errorf("recording dimensions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("rebuilt sqlite-vec index",
		"count", len(vectors),
		"dimensions", dimensions,
	)
	return nil
}

// Search runs a vec0 KNN query. vec0 reports Euclidean distance.
func (d *Driver) Search(ctx context.Context, query []float32, k int) (*vector.Neighbors, error) {
	dims, err := d.dimensions(ctx)
	if err != nil {
		return nil, err
	}

	if k <= 0 {
		return vector.NewNeighbors(0), nil
	}

	if len(query) != dims {
		return nil, &vector.DimensionError{Position: -1, Want: dims, Got: len(query)}
	}

	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_embeddings`).Scan(&count); err != nil {
		return nil, fmt.Errorf("counting vectors: %w", err)
	}
	k = min(k, count, maxKNN)
	if k == 0 {
		return vector.NewNeighbors(0), nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT rowid, distance
		FROM vec_embeddings
		WHERE embedding MATCH ?
			AND k = ?
		ORDER BY distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	type hit struct {
		pos  int64
		dist float32
	}
	var hits []hit
	for rows.Next() {
		var rowID int64
		var distance float64
		if err := rows.Scan(&rowID, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		hits = append(hits, hit{pos: rowID - 1, dist: float32(distance)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	// vec0 leaves the order of equal distances unspecified.
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		case a.pos < b.pos:
			return -1
		case a.pos > b.pos:
			return 1
		default:
			return 0
		}
	})

	n := vector.NewNeighbors(k)
	for i := 0; i < len(hits) && i < k; i++ {
		n.Positions[i] = hits[i].pos
		n.Distances[i] = hits[i].dist
	}

	d.logger.Debug("queried sqlite-vec", "results", len(hits))
	return n, nil
}

// Count returns the stored vector count and dimensionality.
func (d *Driver) Count(ctx context.Context) (int, int, error) {
	dims, err := d.dimensions(ctx)
	if err != nil {
		return 0, 0, err
	}

	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_embeddings`).Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, dims, nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

func (d *Driver) dimensions(ctx context.Context) (int, error) {
	var dims int
	err := d.db.QueryRowContext(ctx, `SELECT dimensions FROM vec_meta WHERE id = 1`).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, vector.ErrNotBuilt
	}
	if err != nil {
		return 0, fmt.Errorf("reading index metadata: %w", err)
	}
	return dims, nil
}

var _ vector.Driver = (*Driver)(nil)
