package securecache

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

type entry struct {
	bun.BaseModel `bun:"table:cache_entries"`

	Name      string    `bun:",pk"`
	Value     []byte    `bun:",notnull"`
	UpdatedAt time.Time `bun:",notnull"`
}

// SQLite keeps the cache in a single sqlite file.
type SQLite struct {
	db *bun.DB
}

// OpenSQLite opens or creates the cache file at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "securecache.OpenSQLite.Open: ")
	}
	// one connection: the device is the only writer and :memory: is per-connection
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "securecache.OpenSQLite.CreateTable: ")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e := new(entry)
	err := s.db.NewSelect().Model(e).Where("name = ?", key).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "securecache.Get.Scan: ")
	}
	return e.Value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	e := &entry{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(e).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "securecache.Set.Exec: ")
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().Model((*entry)(nil)).Where("name = ?", key).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "securecache.Delete.Exec: ")
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
