package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// remoteDocument is one row of the remote document store: a JSON body keyed
// by collection name and id, with server-maintained timestamps.
type remoteDocument struct {
	Collection string `gorm:"primaryKey;size:40"`
	ID         string `gorm:"primaryKey;size:40"`
	Data       []byte `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (remoteDocument) TableName() string { return "documents" }

// PostgresGateway implements Gateway on a Postgres-backed documents table.
// Change subscription is a per-collection poll comparing row count and the
// newest updated_at stamp.
type PostgresGateway struct {
	db           *gorm.DB
	pollInterval time.Duration
	logger       zerolog.Logger
}

func NewPostgresGateway(db *gorm.DB, pollInterval time.Duration, logger zerolog.Logger) (*PostgresGateway, error) {
	if err := db.AutoMigrate(&remoteDocument{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &PostgresGateway{db: db, pollInterval: pollInterval, logger: logger}, nil
}

func (g *PostgresGateway) ListAll(ctx context.Context, collection string) ([]Document, error) {
	var rows []remoteDocument
	if err := g.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, Document{ID: r.ID, Data: json.RawMessage(r.Data)})
	}
	return docs, nil
}

func (g *PostgresGateway) Create(ctx context.Context, collection string, payload any) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	body, err := stampBody(payload, id, now, now)
	if err != nil {
		return "", err
	}
	row := remoteDocument{Collection: collection, ID: id, Data: body, CreatedAt: now, UpdatedAt: now}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (g *PostgresGateway) Update(ctx context.Context, collection, id string, payload any) error {
	var row remoteDocument
	err := g.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("document %s/%s not found", collection, id)
		}
		return classify(err)
	}

	// Partial update: merge the payload's keys over the stored body.
	merged, err := mergeBody(row.Data, payload)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	merged, err = stampBody(json.RawMessage(merged), id, row.CreatedAt, now)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).
		Model(&remoteDocument{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]any{"data": merged, "updated_at": now}).Error; err != nil {
		return classify(err)
	}
	return nil
}

func (g *PostgresGateway) Delete(ctx context.Context, collection, id string) error {
	res := g.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&remoteDocument{})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %s/%s not found", collection, id)
	}
	return nil
}

func (g *PostgresGateway) Subscribe(collection string, onChange func(string), onError func(error)) (func(), error) {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(g.pollInterval)
		defer ticker.Stop()

		var lastCount int64
		var lastStamp time.Time
		primed := false
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			var state struct {
				Count int64
				Stamp time.Time
			}
			err := g.db.Model(&remoteDocument{}).
				Where("collection = ?", collection).
				Select("COUNT(*) AS count, COALESCE(MAX(updated_at), 'epoch') AS stamp").
				Scan(&state).Error
			if err != nil {
				if onError != nil {
					onError(classify(err))
				}
				continue
			}
			if primed && (state.Count != lastCount || !state.Stamp.Equal(lastStamp)) {
				g.logger.Debug().Str("collection", collection).Msg("remote change detected")
				onChange(collection)
			}
			lastCount, lastStamp, primed = state.Count, state.Stamp, true
		}
	}()
	return func() { close(stop) }, nil
}

// stampBody injects the id and timestamps into the JSON body so listed
// documents round-trip with their identity intact.
func stampBody(payload any, id string, createdAt, updatedAt time.Time) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	body["id"] = id
	body["created_at"] = createdAt.Format(time.RFC3339Nano)
	body["updated_at"] = updatedAt.Format(time.RFC3339Nano)
	return json.Marshal(body)
}

// mergeBody overlays the payload's top-level keys onto the stored body.
func mergeBody(stored []byte, payload any) ([]byte, error) {
	var base map[string]any
	if err := json.Unmarshal(stored, &base); err != nil {
		base = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var patch map[string]any
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	for k, v := range patch {
		base[k] = v
	}
	return json.Marshal(base)
}

// classify folds driver-level connectivity failures into ErrUnreachable so
// the unified store can distinguish them from remote rejections.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"failed to connect",
	} {
		if strings.Contains(msg, needle) {
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}
	return err
}
