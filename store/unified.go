package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cngcrm-backend/models"
	"cngcrm-backend/utils"
	"cngcrm-backend/views"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Result reports the outcome of a successful mutation. Offline marks a
// write that was applied locally and queued because the remote store was
// unreachable.
type Result struct {
	ID      string `json:"id,omitempty"`
	Offline bool   `json:"offline"`
}

// Meta is the connectivity/sync state surfaced to the exterior.
type Meta struct {
	IsOnline    bool      `json:"isOnline"`
	QueueLength int       `json:"queueLength"`
	LastSync    time.Time `json:"lastSync"`
}

type Options struct {
	// CacheTTL is the freshness window for the persisted snapshot; older
	// entries are ignored on bootstrap. Defaults to 15 minutes.
	CacheTTL time.Duration
	// Clock overrides time.Now, for tests.
	Clock  func() time.Time
	Logger zerolog.Logger
}

// UnifiedStore owns the raw record sets and every derived view. All reads
// go through accessors and all writes through AddItem/UpdateItem/DeleteItem;
// no other component mutates raw state. View recomputation is atomic with
// the raw-state change that triggers it.
type UnifiedStore struct {
	gw       Gateway
	cache    Cache
	queue    QueueStore
	cacheTTL time.Duration
	clock    func() time.Time
	logger   zerolog.Logger

	mu       sync.RWMutex
	raw      models.RawData
	data     views.Data
	online   bool
	lastSync time.Time
	unsubs   []func()

	// syncMu serializes full reloads and offline-queue drains so only one
	// sync pass is active at a time.
	syncMu sync.Mutex
}

func New(gw Gateway, cache Cache, queue QueueStore, opts Options) *UnifiedStore {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	s := &UnifiedStore{
		gw:       gw,
		cache:    cache,
		queue:    queue,
		cacheTTL: opts.CacheTTL,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	s.mu.Lock()
	s.recomputeLocked()
	s.mu.Unlock()
	return s
}

// Bootstrap brings the store up: a fresh cached snapshot is shown
// immediately, then reconciled against the remote store with a bounded
// retry, and change subscriptions are registered for every collection.
// An error is returned only when the remote load fails and no usable cache
// exists.
func (s *UnifiedStore) Bootstrap(ctx context.Context) error {
	cached := s.restoreSnapshot()

	if err := s.reloadWithRetry(ctx); err != nil {
		if !cached {
			return fmt.Errorf("initial load failed and no cached snapshot: %w", err)
		}
		s.logger.Warn().Err(err).Msg("remote load failed, serving cached snapshot")
		s.setOnlineFlag(false)
	}

	for _, collection := range models.Collections {
		unsub, err := s.gw.Subscribe(collection, s.onRemoteChange, func(err error) {
			s.logger.Error().Err(err).Msg("change subscription error")
			if IsUnreachable(err) {
				s.setOnlineFlag(false)
			}
		})
		if err != nil {
			s.logger.Error().Err(err).Str("collection", collection).Msg("subscribe failed")
			continue
		}
		s.unsubs = append(s.unsubs, unsub)
	}
	return nil
}

// Close tears down the change subscriptions.
func (s *UnifiedStore) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// onRemoteChange handles any change notification with a full reload of all
// five collections, trading efficiency for correctness at this data scale.
func (s *UnifiedStore) onRemoteChange(collection string) {
	if err := s.ReloadAll(context.Background()); err != nil {
		s.logger.Error().Err(err).Str("collection", collection).Msg("reload after change notification failed")
	}
}

func (s *UnifiedStore) reloadWithRetry(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = s.ReloadAll(ctx); err == nil {
			return nil
		}
		if attempt < 3 {
			// Linearly increasing backoff between bulk-load attempts.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return err
}

// ReloadAll fetches every collection from the remote store and atomically
// swaps in the new raw state plus recomputed views.
func (s *UnifiedStore) ReloadAll(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *UnifiedStore) reloadLocked(ctx context.Context) error {
	var raw models.RawData
	for _, collection := range models.Collections {
		docs, err := s.gw.ListAll(ctx, collection)
		if err != nil {
			if IsUnreachable(err) {
				s.setOnlineFlag(false)
			}
			return fmt.Errorf("list %s: %w", collection, err)
		}
		s.decodeCollection(&raw, collection, docs)
	}

	s.mu.Lock()
	s.raw = raw
	s.online = true
	s.lastSync = s.clock()
	s.recomputeLocked()
	s.mu.Unlock()

	s.persistSnapshot()
	return nil
}

// decodeCollection unmarshals listed documents into the typed record set.
// Malformed documents are logged and skipped rather than failing the load.
func (s *UnifiedStore) decodeCollection(raw *models.RawData, collection string, docs []Document) {
	skip := func(id string, err error) {
		s.logger.Warn().Err(err).Str("collection", collection).Str("id", id).Msg("skipping malformed document")
	}
	switch collection {
	case models.CollectionCustomers:
		raw.Customers = make([]models.Customer, 0, len(docs))
		for _, d := range docs {
			var rec models.Customer
			if err := json.Unmarshal(d.Data, &rec); err != nil {
				skip(d.ID, err)
				continue
			}
			rec.ID = d.ID
			raw.Customers = append(raw.Customers, rec)
		}
	case models.CollectionProducts:
		raw.Products = make([]models.Product, 0, len(docs))
		for _, d := range docs {
			var rec models.Product
			if err := json.Unmarshal(d.Data, &rec); err != nil {
				skip(d.ID, err)
				continue
			}
			rec.ID = d.ID
			raw.Products = append(raw.Products, rec)
		}
	case models.CollectionMappings:
		raw.Mappings = make([]models.Mapping, 0, len(docs))
		for _, d := range docs {
			var rec models.Mapping
			if err := json.Unmarshal(d.Data, &rec); err != nil {
				skip(d.ID, err)
				continue
			}
			rec.ID = d.ID
			raw.Mappings = append(raw.Mappings, rec)
		}
	case models.CollectionServices:
		raw.Services = make([]models.Service, 0, len(docs))
		for _, d := range docs {
			var rec models.Service
			if err := json.Unmarshal(d.Data, &rec); err != nil {
				skip(d.ID, err)
				continue
			}
			rec.ID = d.ID
			raw.Services = append(raw.Services, rec)
		}
	case models.CollectionLogs:
		raw.Logs = make([]models.LogEntry, 0, len(docs))
		for _, d := range docs {
			var rec models.LogEntry
			if err := json.Unmarshal(d.Data, &rec); err != nil {
				skip(d.ID, err)
				continue
			}
			rec.ID = d.ID
			raw.Logs = append(raw.Logs, rec)
		}
	}
}

// recomputeLocked re-derives every view from the raw sets. The clock is
// read once per recomputation and used consistently across all views.
// Callers must hold s.mu.
func (s *UnifiedStore) recomputeLocked() {
	s.data = views.Compute(s.raw, s.clock())
}

// AddItem writes a new record. On remote success the record is applied to
// the raw state; when the remote store is unreachable the record is applied
// optimistically under a locally assigned id and the mutation queued for
// replay. Any other remote failure leaves state untouched.
func (s *UnifiedStore) AddItem(ctx context.Context, collection string, payload any) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode %s payload: %w", collection, err)
	}
	body = s.normalizeCreate(collection, body)

	id, err := s.gw.Create(ctx, collection, json.RawMessage(body))
	switch {
	case err == nil:
		s.applyCreate(collection, id, body)
		s.setOnlineFlag(true)
		s.autoLog(ctx, collection, id, body)
		return Result{ID: id}, nil
	case IsUnreachable(err):
		id = uuid.NewString()
		s.applyCreate(collection, id, body)
		s.enqueue(PendingOp{Collection: collection, Action: ActionCreate, ID: id, Payload: body, Timestamp: s.clock()})
		s.setOnlineFlag(false)
		s.autoLog(ctx, collection, id, body)
		return Result{ID: id, Offline: true}, nil
	default:
		return Result{}, err
	}
}

// UpdateItem applies a partial payload to an existing record, with the same
// offline semantics as AddItem.
func (s *UnifiedStore) UpdateItem(ctx context.Context, collection, id string, payload any) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode %s payload: %w", collection, err)
	}
	body = s.normalizeUpdate(collection, id, body)

	err = s.gw.Update(ctx, collection, id, json.RawMessage(body))
	switch {
	case err == nil:
		s.applyUpdate(collection, id, body)
		s.setOnlineFlag(true)
		return Result{ID: id}, nil
	case IsUnreachable(err):
		s.applyUpdate(collection, id, body)
		s.enqueue(PendingOp{Collection: collection, Action: ActionUpdate, ID: id, Payload: body, Timestamp: s.clock()})
		s.setOnlineFlag(false)
		return Result{ID: id, Offline: true}, nil
	default:
		return Result{}, err
	}
}

// DeleteItem removes a record. Dependent records are left in place; the
// view engine masks the dangling references with placeholders.
func (s *UnifiedStore) DeleteItem(ctx context.Context, collection, id string) (Result, error) {
	err := s.gw.Delete(ctx, collection, id)
	switch {
	case err == nil:
		s.applyDelete(collection, id)
		s.setOnlineFlag(true)
		return Result{ID: id}, nil
	case IsUnreachable(err):
		s.applyDelete(collection, id)
		s.enqueue(PendingOp{Collection: collection, Action: ActionDelete, ID: id, Timestamp: s.clock()})
		s.setOnlineFlag(false)
		return Result{ID: id, Offline: true}, nil
	default:
		return Result{}, err
	}
}

// normalizeCreate enforces derived-field invariants before a record is
// written: a mapping's expiry date always reflects its purchase date and
// warranty period.
func (s *UnifiedStore) normalizeCreate(collection string, body []byte) []byte {
	if collection != models.CollectionMappings {
		return body
	}
	var m models.Mapping
	if err := json.Unmarshal(body, &m); err != nil {
		return body
	}
	m.WarrantyExpiryDate = utils.ExpiryDate(m.PurchaseDate, m.WarrantyPeriodMonths)
	out, err := json.Marshal(m)
	if err != nil {
		return body
	}
	return out
}

// normalizeUpdate folds a recomputed expiry date into mapping patches so
// the stored expiry can never go stale relative to its inputs.
func (s *UnifiedStore) normalizeUpdate(collection, id string, body []byte) []byte {
	if collection != models.CollectionMappings {
		return body
	}
	s.mu.RLock()
	var current models.Mapping
	for _, m := range s.raw.Mappings {
		if m.ID == id {
			current = m
			break
		}
	}
	s.mu.RUnlock()

	merged := current
	if err := json.Unmarshal(body, &merged); err != nil {
		return body
	}
	expiry := utils.ExpiryDate(merged.PurchaseDate, merged.WarrantyPeriodMonths)

	var patch map[string]any
	if err := json.Unmarshal(body, &patch); err != nil {
		return body
	}
	patch["warranty_expiry_date"] = expiry
	out, err := json.Marshal(patch)
	if err != nil {
		return body
	}
	return out
}

func (s *UnifiedStore) applyCreate(collection, id string, body []byte) {
	now := s.clock()
	s.mu.Lock()
	switch collection {
	case models.CollectionCustomers:
		var rec models.Customer
		if json.Unmarshal(body, &rec) == nil {
			rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
			s.raw.Customers = append(s.raw.Customers, rec)
		}
	case models.CollectionProducts:
		var rec models.Product
		if json.Unmarshal(body, &rec) == nil {
			rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
			s.raw.Products = append(s.raw.Products, rec)
		}
	case models.CollectionMappings:
		var rec models.Mapping
		if json.Unmarshal(body, &rec) == nil {
			rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
			s.raw.Mappings = append(s.raw.Mappings, rec)
		}
	case models.CollectionServices:
		var rec models.Service
		if json.Unmarshal(body, &rec) == nil {
			rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
			s.raw.Services = append(s.raw.Services, rec)
		}
	case models.CollectionLogs:
		var rec models.LogEntry
		if json.Unmarshal(body, &rec) == nil {
			rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
			s.raw.Logs = append(s.raw.Logs, rec)
		}
	}
	s.recomputeLocked()
	s.mu.Unlock()
	s.persistSnapshot()
}

func (s *UnifiedStore) applyUpdate(collection, id string, patch []byte) {
	now := s.clock()
	s.mu.Lock()
	switch collection {
	case models.CollectionCustomers:
		for i := range s.raw.Customers {
			if s.raw.Customers[i].ID == id {
				mergeRecord(&s.raw.Customers[i], patch)
				s.raw.Customers[i].ID = id
				s.raw.Customers[i].UpdatedAt = now
				break
			}
		}
	case models.CollectionProducts:
		for i := range s.raw.Products {
			if s.raw.Products[i].ID == id {
				mergeRecord(&s.raw.Products[i], patch)
				s.raw.Products[i].ID = id
				s.raw.Products[i].UpdatedAt = now
				break
			}
		}
	case models.CollectionMappings:
		for i := range s.raw.Mappings {
			if s.raw.Mappings[i].ID == id {
				mergeRecord(&s.raw.Mappings[i], patch)
				s.raw.Mappings[i].ID = id
				s.raw.Mappings[i].UpdatedAt = now
				break
			}
		}
	case models.CollectionServices:
		for i := range s.raw.Services {
			if s.raw.Services[i].ID == id {
				mergeRecord(&s.raw.Services[i], patch)
				s.raw.Services[i].ID = id
				s.raw.Services[i].UpdatedAt = now
				break
			}
		}
	case models.CollectionLogs:
		for i := range s.raw.Logs {
			if s.raw.Logs[i].ID == id {
				mergeRecord(&s.raw.Logs[i], patch)
				s.raw.Logs[i].ID = id
				s.raw.Logs[i].UpdatedAt = now
				break
			}
		}
	}
	s.recomputeLocked()
	s.mu.Unlock()
	s.persistSnapshot()
}

// mergeRecord overlays the fields present in the JSON patch onto the
// existing record; absent fields are untouched.
func mergeRecord[T any](rec *T, patch []byte) {
	_ = json.Unmarshal(patch, rec)
}

func (s *UnifiedStore) applyDelete(collection, id string) {
	s.mu.Lock()
	switch collection {
	case models.CollectionCustomers:
		s.raw.Customers = deleteByID(s.raw.Customers, func(r models.Customer) string { return r.ID }, id)
	case models.CollectionProducts:
		s.raw.Products = deleteByID(s.raw.Products, func(r models.Product) string { return r.ID }, id)
	case models.CollectionMappings:
		s.raw.Mappings = deleteByID(s.raw.Mappings, func(r models.Mapping) string { return r.ID }, id)
	case models.CollectionServices:
		s.raw.Services = deleteByID(s.raw.Services, func(r models.Service) string { return r.ID }, id)
	case models.CollectionLogs:
		s.raw.Logs = deleteByID(s.raw.Logs, func(r models.LogEntry) string { return r.ID }, id)
	}
	s.recomputeLocked()
	s.mu.Unlock()
	s.persistSnapshot()
}

func deleteByID[T any](recs []T, idOf func(T) string, id string) []T {
	out := recs[:0]
	for _, r := range recs {
		if idOf(r) != id {
			out = append(out, r)
		}
	}
	return out
}

// autoLog appends one activity record summarizing a mapping or service
// creation. The mapping label distinguishes a first sale from a renewal by
// whether the customer already held another warranty.
func (s *UnifiedStore) autoLog(ctx context.Context, collection, id string, body []byte) {
	var entry models.LogEntry
	switch collection {
	case models.CollectionMappings:
		var m models.Mapping
		if err := json.Unmarshal(body, &m); err != nil {
			return
		}
		action := "New sale - warranty registered"
		s.mu.RLock()
		for _, other := range s.raw.Mappings {
			if other.CustomerID == m.CustomerID && other.ID != id {
				action = "Renewal - warranty registered"
				break
			}
		}
		s.mu.RUnlock()
		entry = models.LogEntry{
			CustomerID: m.CustomerID,
			ProductID:  m.ProductID,
			Action:     action,
			Date:       m.PurchaseDate,
			Notes:      m.Notes,
			LogType:    models.LogTypeWarrantySales,
		}
	case models.CollectionServices:
		var sv models.Service
		if err := json.Unmarshal(body, &sv); err != nil {
			return
		}
		entry = models.LogEntry{
			CustomerID: sv.CustomerID,
			ProductID:  sv.ProductID,
			Action:     "Service visit recorded (" + sv.ServiceType + ")",
			Date:       sv.ServiceDate,
			Notes:      sv.ServiceNotes,
			LogType:    models.LogTypeService,
		}
	default:
		return
	}
	if _, err := s.AddItem(ctx, models.CollectionLogs, entry); err != nil {
		s.logger.Error().Err(err).Str("collection", collection).Str("id", id).Msg("activity log write failed")
	}
}

// AppendLog records an activity entry through the normal mutation path.
func (s *UnifiedStore) AppendLog(ctx context.Context, entry models.LogEntry) (Result, error) {
	return s.AddItem(ctx, models.CollectionLogs, entry)
}

func (s *UnifiedStore) enqueue(op PendingOp) {
	if err := s.queue.Append(op); err != nil {
		s.logger.Error().Err(err).Str("collection", op.Collection).Str("action", op.Action).Msg("offline queue append failed")
	}
}

// SetOnline records a connectivity transition. Moving from offline to
// online synchronously drains the offline queue and reconciles with the
// remote store.
func (s *UnifiedStore) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	was := s.online
	s.online = online
	s.mu.Unlock()

	if online && !was {
		s.drainQueue(ctx)
		if err := s.ReloadAll(ctx); err != nil {
			s.logger.Error().Err(err).Msg("reload after reconnect failed")
		}
	}
}

// drainQueue replays every queued mutation strictly in enqueue order. A
// descriptor that fails to replay is logged and skipped, and the queue is
// cleared unconditionally afterwards: at-most-once delivery, a known
// data-loss limitation carried over from the source behavior.
func (s *UnifiedStore) drainQueue(ctx context.Context) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	ops, err := s.queue.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("offline queue read failed")
		return
	}
	for _, op := range ops {
		var err error
		switch op.Action {
		case ActionCreate:
			_, err = s.gw.Create(ctx, op.Collection, op.Payload)
		case ActionUpdate:
			err = s.gw.Update(ctx, op.Collection, op.ID, op.Payload)
		case ActionDelete:
			err = s.gw.Delete(ctx, op.Collection, op.ID)
		default:
			err = fmt.Errorf("unknown action %q", op.Action)
		}
		if err != nil {
			s.logger.Error().Err(err).
				Str("collection", op.Collection).
				Str("action", op.Action).
				Str("id", op.ID).
				Msg("offline replay failed, dropping descriptor")
		}
	}
	if err := s.queue.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("offline queue clear failed")
	}
}

// restoreSnapshot loads a previously cached raw snapshot if it is within
// the freshness window. Malformed cache data is treated as a miss.
func (s *UnifiedStore) restoreSnapshot() bool {
	payload, savedAt, ok := s.cache.Load(SnapshotKey)
	if !ok || s.clock().Sub(savedAt) > s.cacheTTL {
		return false
	}
	var raw models.RawData
	if err := json.Unmarshal(payload, &raw); err != nil {
		s.logger.Warn().Err(err).Msg("cached snapshot malformed, ignoring")
		return false
	}
	s.mu.Lock()
	s.raw = raw
	s.recomputeLocked()
	s.mu.Unlock()
	return true
}

func (s *UnifiedStore) persistSnapshot() {
	s.mu.RLock()
	payload, err := json.Marshal(s.raw)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Error().Err(err).Msg("snapshot encode failed")
		return
	}
	if err := s.cache.Save(SnapshotKey, payload); err != nil {
		s.logger.Error().Err(err).Msg("snapshot persist failed")
	}
}

func (s *UnifiedStore) setOnlineFlag(online bool) {
	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
}

// Data returns the current derived views and stats.
func (s *UnifiedStore) Data() views.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *UnifiedStore) Stats() views.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Stats
}

// Raw returns a snapshot of the current raw record sets. The slices are
// copies: writers compact and overwrite the store's backing arrays in
// place, so handing out the live headers would race with readers.
func (s *UnifiedStore) Raw() models.RawData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.RawData{
		Customers: append([]models.Customer(nil), s.raw.Customers...),
		Products:  append([]models.Product(nil), s.raw.Products...),
		Mappings:  append([]models.Mapping(nil), s.raw.Mappings...),
		Services:  append([]models.Service(nil), s.raw.Services...),
		Logs:      append([]models.LogEntry(nil), s.raw.Logs...),
	}
}

func (s *UnifiedStore) Meta() Meta {
	ops, err := s.queue.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("offline queue read failed")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Meta{IsOnline: s.online, QueueLength: len(ops), LastSync: s.lastSync}
}
