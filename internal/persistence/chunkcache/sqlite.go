// Package chunkcache persists fetched and generated chunks in a local
// sqlite database so revisited terrain does not hit the network or the
// generator again.
package chunkcache

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	seed    INTEGER NOT NULL,
	x       INTEGER NOT NULL,
	y       INTEGER NOT NULL,
	z       INTEGER NOT NULL,
	blocks  BLOB    NOT NULL,
	updated TEXT    NOT NULL,
	PRIMARY KEY (seed, x, y, z)
);
`

type Store struct {
	db   *sql.DB
	seed int64
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open creates or opens the cache at path. Entries are namespaced by seed
// so different worlds never mix.
func Open(path string, seed int64) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty cache path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chunkcache schema: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, seed: seed, enc: enc, dec: dec}, nil
}

func (s *Store) Get(x, y, z int) ([]uint16, bool, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT blocks FROM chunks WHERE seed=? AND x=? AND y=? AND z=?`,
		s.seed, x, y, z,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, false, fmt.Errorf("chunkcache decode (%d,%d,%d): %w", x, y, z, err)
	}
	if len(raw)%2 != 0 {
		return nil, false, fmt.Errorf("chunkcache: odd blob length %d", len(raw))
	}
	blocks := make([]uint16, len(raw)/2)
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return blocks, true, nil
}

func (s *Store) Put(x, y, z int, blocks []uint16) error {
	raw := make([]byte, 2*len(blocks))
	for i, b := range blocks {
		binary.LittleEndian.PutUint16(raw[2*i:], b)
	}
	blob := s.enc.EncodeAll(raw, nil)
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO chunks (seed, x, y, z, blocks, updated) VALUES (?,?,?,?,?,?)`,
		s.seed, x, y, z, blob, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) Close() error {
	s.dec.Close()
	_ = s.enc.Close()
	return s.db.Close()
}
