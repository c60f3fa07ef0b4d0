// Package gormstore persists the book document in SQLite through gorm.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"us30bot/internal/position"
	"us30bot/internal/store"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const openPriceKey = "open_price"

// GormStore implements store.StateStore on a SQLite file.
type GormStore struct {
	db *gorm.DB
}

var _ store.StateStore = (*GormStore)(nil)

// NewGormStore opens (and migrates) the database at path.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("gorm store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&metaModel{}, &positionModel{}, &signalModel{}, &closeEventModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load assembles the document from the tables. Rows that no longer decode
// are skipped and reported through store.ErrCorrupt.
func (s *GormStore) Load(ctx context.Context) (store.Document, error) {
	doc := store.Empty()
	db := s.db.WithContext(ctx)
	var bad []string

	var meta metaModel
	err := db.Where("key = ?", openPriceKey).Take(&meta).Error
	switch {
	case err == nil:
		if p, perr := decimal.NewFromString(meta.Value); perr == nil {
			doc.OpenPrice = &p
		} else {
			bad = append(bad, "open price")
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return store.Empty(), err
	}

	var positions []positionModel
	if err := db.Order("seq ASC").Find(&positions).Error; err != nil {
		return store.Empty(), err
	}
	for _, m := range positions {
		p, perr := m.toPosition()
		if perr != nil {
			bad = append(bad, "position "+m.ID)
			continue
		}
		doc.Positions = append(doc.Positions, p)
	}

	var signals []signalModel
	if err := db.Order("observed_at ASC, seq ASC").Find(&signals).Error; err != nil {
		return store.Empty(), err
	}
	for _, m := range signals {
		doc.Signals = append(doc.Signals, m.toSignal())
	}

	var closes []closeEventModel
	if err := db.Order("seq ASC").Find(&closes).Error; err != nil {
		return store.Empty(), err
	}
	for _, m := range closes {
		var ev position.CloseEvent
		if err := json.Unmarshal(m.Payload, &ev); err != nil {
			bad = append(bad, fmt.Sprintf("close event %d", m.Seq))
			continue
		}
		doc.Closes = append(doc.Closes, ev)
	}

	if len(bad) > 0 {
		return doc, fmt.Errorf("%w: %s", store.ErrCorrupt, strings.Join(bad, ", "))
	}
	return doc, nil
}

// Save replaces every table's contents with doc in one transaction.
func (s *GormStore) Save(ctx context.Context, doc store.Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&positionModel{}, &signalModel{}, &closeEventModel{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		if doc.OpenPrice != nil {
			meta := metaModel{Key: openPriceKey, Value: doc.OpenPrice.String(), UpdatedAtUnix: time.Now().UnixMilli()}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&meta).Error; err != nil {
				return err
			}
		} else if err := tx.Where("key = ?", openPriceKey).Delete(&metaModel{}).Error; err != nil {
			return err
		}

		if len(doc.Positions) > 0 {
			rows := make([]positionModel, 0, len(doc.Positions))
			for i, p := range doc.Positions {
				rows = append(rows, newPositionModel(i, p))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if len(doc.Signals) > 0 {
			rows := make([]signalModel, 0, len(doc.Signals))
			for i, sg := range doc.Signals {
				rows = append(rows, newSignalModel(i, sg))
			}
			if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
				return err
			}
		}
		if len(doc.Closes) > 0 {
			rows := make([]closeEventModel, 0, len(doc.Closes))
			for i, ev := range doc.Closes {
				payload, err := json.Marshal(ev)
				if err != nil {
					return err
				}
				rows = append(rows, closeEventModel{Seq: i, PositionID: ev.PositionID, Payload: datatypes.JSON(payload), AtUnix: ev.At.UnixMilli()})
			}
			if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
