package chain

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// DatabaseFile is the header database file name inside a chain database path.
const DatabaseFile = "headers.db"

const (
	headBest      = "best"
	headFinalized = "finalized"
)

// Store keeps the imported headers of one chain in sqlite.
type Store struct {
	db     *sql.DB
	path   string
	logger *logging.ColoredLogger

	// serializes head updates
	mu sync.Mutex
}

// OpenStore opens (creating if needed) the header database under dir and
// seeds it with the genesis hash at number 0.
func OpenStore(ctx context.Context, dir string, genesis common.Hash, logger *logging.ColoredLogger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewInternalError("failed to create database directory", err).WithOperation("openStore")
	}

	path := filepath.Join(dir, DatabaseFile)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.NewInternalError("failed to open header database", err).WithOperation("openStore")
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		logger.ComponentWarn(logging.ComponentStorage, "Failed to enable WAL mode", zap.Error(err))
	}

	if err := applyMigrations(ctx, db, logger.Logger); err != nil {
		db.Close()
		return nil, errors.NewInternalError("failed to migrate header database", err).WithOperation("openStore")
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.seedGenesis(ctx, genesis); err != nil {
		db.Close()
		return nil, err
	}

	logger.ComponentDebug(logging.ComponentStorage, "Header store opened", zap.String("path", path))
	return s, nil
}

func (s *Store) seedGenesis(ctx context.Context, genesis common.Hash) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternalError("failed to begin transaction", err).WithOperation("seedGenesis")
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT hash FROM headers WHERE number = 0`).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		hash := genesis.Hex()
		if _, err := tx.ExecContext(ctx, `INSERT INTO headers(number, hash) VALUES (0, ?)`, hash); err != nil {
			return errors.NewInternalError("failed to insert genesis", err).WithOperation("seedGenesis")
		}
		for _, kind := range []string{headBest, headFinalized} {
			if _, err := tx.ExecContext(ctx, `INSERT INTO chain_head(kind, number, hash) VALUES (?, 0, ?)`, kind, hash); err != nil {
				return errors.NewInternalError("failed to insert head", err).WithOperation("seedGenesis")
			}
		}
	case err != nil:
		return errors.NewInternalError("failed to read genesis", err).WithOperation("seedGenesis")
	case existing != genesis.Hex():
		return errors.NewConfigError("genesis", fmt.Sprintf("database %s belongs to genesis %s, not %s", s.path, existing, genesis.Hex()), nil)
	}

	return tx.Commit()
}

// ImportHead records a new best header. Older or equal numbers are ignored.
// It reports whether the best head moved.
func (s *Store) ImportHead(ctx context.Context, number uint64, hash common.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.NewInternalError("failed to begin transaction", err).WithOperation("importHead")
	}
	defer tx.Rollback()

	best, _, err := readHead(ctx, tx, headBest)
	if err != nil {
		return false, err
	}
	if number <= best {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO headers(number, hash) VALUES (?, ?)`, int64(number), hash.Hex()); err != nil {
		return false, errors.NewInternalError("failed to insert header", err).WithOperation("importHead")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chain_head SET number = ?, hash = ? WHERE kind = ?`, int64(number), hash.Hex(), headBest); err != nil {
		return false, errors.NewInternalError("failed to update best head", err).WithOperation("importHead")
	}
	if err := tx.Commit(); err != nil {
		return false, errors.NewInternalError("failed to commit", err).WithOperation("importHead")
	}
	return true, nil
}

// Finalize moves the finalized head forward. The number may not pass the best
// head and may not move backwards.
func (s *Store) Finalize(ctx context.Context, number uint64, hash common.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.NewInternalError("failed to begin transaction", err).WithOperation("finalize")
	}
	defer tx.Rollback()

	best, _, err := readHead(ctx, tx, headBest)
	if err != nil {
		return false, err
	}
	finalized, _, err := readHead(ctx, tx, headFinalized)
	if err != nil {
		return false, err
	}
	if number <= finalized || number > best {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO headers(number, hash) VALUES (?, ?)`, int64(number), hash.Hex()); err != nil {
		return false, errors.NewInternalError("failed to insert header", err).WithOperation("finalize")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chain_head SET number = ?, hash = ? WHERE kind = ?`, int64(number), hash.Hex(), headFinalized); err != nil {
		return false, errors.NewInternalError("failed to update finalized head", err).WithOperation("finalize")
	}
	if err := tx.Commit(); err != nil {
		return false, errors.NewInternalError("failed to commit", err).WithOperation("finalize")
	}
	return true, nil
}

// Info implements InfoSource.
func (s *Store) Info(ctx context.Context) (Info, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Info{}, errors.NewInternalError("failed to begin transaction", err).WithOperation("info")
	}
	defer tx.Rollback()

	var info Info
	if info.BestNumber, info.BestHash, err = readHead(ctx, tx, headBest); err != nil {
		return Info{}, err
	}
	if info.FinalizedNumber, info.FinalizedHash, err = readHead(ctx, tx, headFinalized); err != nil {
		return Info{}, err
	}
	return info, nil
}

// HashAt returns the hash of the header at number, if imported.
func (s *Store) HashAt(ctx context.Context, number uint64) (common.Hash, bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT hash FROM headers WHERE number = ?`, int64(number)).Scan(&hash)
	if err == sql.ErrNoRows {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, errors.NewInternalError("failed to read header", err).WithOperation("hashAt")
	}
	return common.HexToHash(hash), true, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func readHead(ctx context.Context, tx *sql.Tx, kind string) (uint64, common.Hash, error) {
	var number int64
	var hash string
	if err := tx.QueryRowContext(ctx, `SELECT number, hash FROM chain_head WHERE kind = ?`, kind).Scan(&number, &hash); err != nil {
		return 0, common.Hash{}, errors.NewInternalError("failed to read "+kind+" head", err).WithOperation("readHead")
	}
	return uint64(number), common.HexToHash(hash), nil
}
