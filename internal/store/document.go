package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentStore keeps documents in the documents table and pushes a full
// collection snapshot to subscribers after every change signal on its Bus.
type DocumentStore struct {
	db  *gorm.DB
	bus Bus
}

// NewDocumentStore wraps db. A nil bus means a process-local bus.
func NewDocumentStore(db *gorm.DB, bus Bus) *DocumentStore {
	if bus == nil {
		bus = NewLocalBus()
	}
	return &DocumentStore{db: db, bus: bus}
}

func (s *DocumentStore) Subscribe(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) Unsubscribe {
	q.Path = CleanPath(q.Path)
	ctx, cancel := context.WithCancel(ctx)
	logger := observability.NewStoreLogger(q.Path)

	report := func(err error) {
		if ctx.Err() != nil {
			return
		}
		logger.LogError(ctx, err, "subscribe")
		if onError != nil {
			onError(models.NewSubscriptionError(q.Path, err))
		}
	}

	signals, stop, err := s.bus.Listen(ctx, q.Path)
	if err != nil {
		go report(err)
		return once(cancel)
	}

	go func() {
		defer stop()
		deliver := func() bool {
			snap, err := s.load(ctx, q)
			if err != nil {
				report(err)
				return ctx.Err() == nil
			}
			if ctx.Err() != nil {
				return false
			}
			logger.LogSnapshot(ctx, snap.Len(), 0)
			onSnapshot(snap)
			return true
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					report(errors.New("change feed closed"))
					return
				}
				if !deliver() {
					return
				}
			}
		}
	}()

	return once(func() {
		cancel()
	})
}

func (s *DocumentStore) load(ctx context.Context, q Query) (Snapshot, error) {
	defer observability.TrackStoreOperation("load", q.Path)()

	tx := s.db.WithContext(ctx).Where("collection = ?", q.Path)
	if q.Field != "" {
		tx = tx.Where(datatypes.JSONQuery("body").Equals(q.Equals, q.Field))
	}

	var docs []models.Document
	if err := tx.Order("key").Find(&docs).Error; err != nil {
		return Snapshot{}, err
	}

	children := make(map[string]json.RawMessage, len(docs))
	for _, d := range docs {
		children[d.Key] = json.RawMessage(d.Body)
	}
	return Snapshot{Path: q.Path, Children: children}, nil
}

func (s *DocumentStore) publish(ctx context.Context, collection string) {
	if err := s.bus.Publish(ctx, collection); err != nil {
		middleware.Logger.WarnContext(ctx, "change signal not published",
			slog.String("collection", collection), slog.String("error", err.Error()))
	}
}

func (s *DocumentStore) traced(ctx context.Context, op, path string, fn func(ctx context.Context) error) (err error) {
	span, ctx := observability.StartClientSpan(ctx, "store."+op, attribute.String("store.path", path))
	defer span.Finish(&err)
	observability.NewStoreLogger(path).LogWrite(ctx, op, path)

	if err = fn(ctx); err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewWriteFailure(op, path, err)
		}
	}
	return err
}

func (s *DocumentStore) Create(ctx context.Context, collection string, value any) (string, error) {
	collection = CleanPath(collection)
	key := uuid.NewString()
	err := s.traced(ctx, "create", collection, func(ctx context.Context) error {
		defer observability.TrackStoreOperation("create", collection)()
		raw, err := encode(value)
		if err != nil {
			return err
		}
		doc := models.Document{Collection: collection, Key: key, Body: datatypes.JSON(raw)}
		if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
			return err
		}
		s.publish(ctx, collection)
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *DocumentStore) Set(ctx context.Context, path string, value any) error {
	return s.traced(ctx, "set", path, func(ctx context.Context) error {
		collection, key, err := SplitPath(path)
		if err != nil {
			return err
		}
		defer observability.TrackStoreOperation("set", collection)()
		raw, err := encode(value)
		if err != nil {
			return err
		}
		doc := models.Document{Collection: collection, Key: key, Body: datatypes.JSON(raw)}
		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(&doc).Error
		if err != nil {
			return err
		}
		s.publish(ctx, collection)
		return nil
	})
}

func (s *DocumentStore) SetIfAbsent(ctx context.Context, path string, value any) (stored json.RawMessage, created bool, err error) {
	err = s.traced(ctx, "set_if_absent", path, func(ctx context.Context) error {
		collection, key, err := SplitPath(path)
		if err != nil {
			return err
		}
		defer observability.TrackStoreOperation("set_if_absent", collection)()
		raw, err := encode(value)
		if err != nil {
			return err
		}
		doc := models.Document{Collection: collection, Key: key, Body: datatypes.JSON(raw)}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
			DoNothing: true,
		}).Create(&doc)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			stored, created = raw, true
			s.publish(ctx, collection)
			return nil
		}

		var existing models.Document
		if err := s.db.WithContext(ctx).
			Where("collection = ? AND key = ?", collection, key).
			First(&existing).Error; err != nil {
			return err
		}
		stored = json.RawMessage(existing.Body)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (s *DocumentStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.traced(ctx, "update", path, func(ctx context.Context) error {
		collection, key, err := SplitPath(path)
		if err != nil {
			return err
		}
		defer observability.TrackStoreOperation("update", collection)()
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var doc models.Document
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("collection = ? AND key = ?", collection, key).
				First(&doc).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s: %w", path, ErrNoDocument)
			}
			if err != nil {
				return err
			}
			merged, err := merge(json.RawMessage(doc.Body), fields)
			if err != nil {
				return err
			}
			return tx.Model(&doc).Update("body", datatypes.JSON(merged)).Error
		})
		if err != nil {
			return err
		}
		s.publish(ctx, collection)
		return nil
	})
}

func (s *DocumentStore) Remove(ctx context.Context, path string) error {
	return s.traced(ctx, "remove", path, func(ctx context.Context) error {
		collection, key, err := SplitPath(path)
		if err != nil {
			return err
		}
		defer observability.TrackStoreOperation("remove", collection)()
		err = s.db.WithContext(ctx).
			Where("collection = ? AND key = ?", collection, key).
			Delete(&models.Document{}).Error
		if err != nil {
			return err
		}
		s.publish(ctx, collection)
		return nil
	})
}
