package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cngcrm-backend/models"
)

// fakeGateway is an in-memory Gateway whose connectivity can be toggled
// per test.
type fakeGateway struct {
	mu          sync.Mutex
	docs        map[string]map[string]json.RawMessage
	unreachable bool
	failWrites  error
	nextID      int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{docs: make(map[string]map[string]json.RawMessage)}
}

func (g *fakeGateway) setUnreachable(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unreachable = v
}

func (g *fakeGateway) seed(collection, id string, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.docs[collection] == nil {
		g.docs[collection] = make(map[string]json.RawMessage)
	}
	g.docs[collection][id] = json.RawMessage(body)
}

func (g *fakeGateway) count(collection string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.docs[collection])
}

func (g *fakeGateway) ListAll(ctx context.Context, collection string) ([]Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unreachable {
		return nil, ErrUnreachable
	}
	out := make([]Document, 0, len(g.docs[collection]))
	for id, body := range g.docs[collection] {
		out = append(out, Document{ID: id, Data: body})
	}
	return out, nil
}

func (g *fakeGateway) Create(ctx context.Context, collection string, payload any) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unreachable {
		return "", ErrUnreachable
	}
	if g.failWrites != nil {
		return "", g.failWrites
	}
	g.nextID++
	id := fmt.Sprintf("remote-%d", g.nextID)
	body, _ := json.Marshal(payload)
	if g.docs[collection] == nil {
		g.docs[collection] = make(map[string]json.RawMessage)
	}
	g.docs[collection][id] = body
	return id, nil
}

func (g *fakeGateway) Update(ctx context.Context, collection, id string, payload any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unreachable {
		return ErrUnreachable
	}
	if g.failWrites != nil {
		return g.failWrites
	}
	if _, ok := g.docs[collection][id]; !ok {
		return errors.New("not found")
	}
	body, _ := json.Marshal(payload)
	g.docs[collection][id] = body
	return nil
}

func (g *fakeGateway) Delete(ctx context.Context, collection, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unreachable {
		return ErrUnreachable
	}
	if g.failWrites != nil {
		return g.failWrites
	}
	delete(g.docs[collection], id)
	return nil
}

func (g *fakeGateway) Subscribe(collection string, onChange func(string), onError func(error)) (func(), error) {
	return func() {}, nil
}

func newTestStore(gw Gateway) *UnifiedStore {
	mem := NewMemoryCache()
	return New(gw, mem, mem, Options{
		Clock: func() time.Time { return time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func TestBootstrapLoadsRemote(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(models.CollectionCustomers, "c1", `{"first_name":"Ramesh","last_name":"Patel","mobile_number":"+919876543210","vehicle_number":"GJ01AB1234"}`)
	gw.seed(models.CollectionProducts, "p1", `{"product_id":"CNG-SEQ-01","product_name":"Sequential CNG Kit","warranty_period_months":12}`)

	st := newTestStore(gw)
	require.NoError(t, st.Bootstrap(context.Background()))
	defer st.Close()

	data := st.Data()
	require.Len(t, data.Customers, 1)
	assert.Equal(t, "Ramesh Patel", data.Customers[0].FullName)
	require.Len(t, data.Products, 1)

	meta := st.Meta()
	assert.True(t, meta.IsOnline)
	assert.Equal(t, 0, meta.QueueLength)
	assert.False(t, meta.LastSync.IsZero())
}

func TestBootstrapServesCachedSnapshotWhenRemoteDown(t *testing.T) {
	mem := NewMemoryCache()
	snapshot, err := json.Marshal(models.RawData{
		Customers: []models.Customer{{ID: "c1", FirstName: "Ramesh", LastName: "Patel"}},
	})
	require.NoError(t, err)
	require.NoError(t, mem.Save(SnapshotKey, snapshot))

	gw := newFakeGateway()
	gw.setUnreachable(true)

	st := New(gw, mem, mem, Options{})
	require.NoError(t, st.Bootstrap(context.Background()))
	defer st.Close()

	data := st.Data()
	require.Len(t, data.Customers, 1)
	assert.Equal(t, "Ramesh Patel", data.Customers[0].FullName)
	assert.False(t, st.Meta().IsOnline)
}

func TestBootstrapFailsWithoutRemoteOrCache(t *testing.T) {
	gw := newFakeGateway()
	gw.setUnreachable(true)

	st := newTestStore(gw)
	assert.Error(t, st.Bootstrap(context.Background()))
}

func TestAddItemOnline(t *testing.T) {
	gw := newFakeGateway()
	st := newTestStore(gw)

	res, err := st.AddItem(context.Background(), models.CollectionCustomers, models.Customer{
		FirstName: "Suresh", MobileNumber: "+919812345678", VehicleNumber: "GJ05CD5678",
	})
	require.NoError(t, err)
	assert.False(t, res.Offline)
	assert.Equal(t, "remote-1", res.ID)

	assert.Equal(t, 1, gw.count(models.CollectionCustomers))
	require.Len(t, st.Data().Customers, 1)
	assert.Equal(t, 0, st.Meta().QueueLength)
}

func TestAddItemOfflineAppliesAndQueues(t *testing.T) {
	gw := newFakeGateway()
	gw.setUnreachable(true)
	st := newTestStore(gw)

	res, err := st.AddItem(context.Background(), models.CollectionCustomers, models.Customer{
		FirstName: "Suresh", MobileNumber: "+919812345678", VehicleNumber: "GJ05CD5678",
	})
	require.NoError(t, err)
	assert.True(t, res.Offline)
	assert.NotEmpty(t, res.ID)

	// The optimistic record is immediately visible in the views.
	data := st.Data()
	require.Len(t, data.Customers, 1)
	assert.Equal(t, res.ID, data.Customers[0].ID)

	meta := st.Meta()
	assert.False(t, meta.IsOnline)
	assert.Equal(t, 1, meta.QueueLength)
	assert.Equal(t, 0, gw.count(models.CollectionCustomers))
}

func TestAddItemRejectionLeavesStateUntouched(t *testing.T) {
	gw := newFakeGateway()
	gw.failWrites = errors.New("validation rejected")
	st := newTestStore(gw)

	_, err := st.AddItem(context.Background(), models.CollectionCustomers, models.Customer{FirstName: "Suresh"})
	require.Error(t, err)
	assert.False(t, IsUnreachable(err))

	assert.Empty(t, st.Data().Customers)
	assert.Equal(t, 0, st.Meta().QueueLength)
}

func TestMappingCreateComputesExpiry(t *testing.T) {
	gw := newFakeGateway()
	st := newTestStore(gw)

	res, err := st.AddItem(context.Background(), models.CollectionMappings, models.Mapping{
		CustomerID:           "c1",
		ProductID:            "p1",
		PurchaseDate:         "2024-01-01",
		WarrantyPeriodMonths: 18,
	})
	require.NoError(t, err)

	raw := st.Raw()
	require.Len(t, raw.Mappings, 1)
	assert.Equal(t, res.ID, raw.Mappings[0].ID)
	assert.Equal(t, "2025-06-30", raw.Mappings[0].WarrantyExpiryDate)
}

func TestMappingUpdateRecomputesExpiry(t *testing.T) {
	gw := newFakeGateway()
	st := newTestStore(gw)

	res, err := st.AddItem(context.Background(), models.CollectionMappings, models.Mapping{
		CustomerID:           "c1",
		ProductID:            "p1",
		PurchaseDate:         "2024-01-01",
		WarrantyPeriodMonths: 12,
	})
	require.NoError(t, err)

	_, err = st.UpdateItem(context.Background(), models.CollectionMappings, res.ID,
		map[string]any{"product_purchase_date": "2024-03-01"})
	require.NoError(t, err)

	raw := st.Raw()
	require.Len(t, raw.Mappings, 1)
	assert.Equal(t, "2024-03-01", raw.Mappings[0].PurchaseDate)
	assert.Equal(t, "2025-02-28", raw.Mappings[0].WarrantyExpiryDate)
}

func TestMappingCreateAppendsActivityLog(t *testing.T) {
	gw := newFakeGateway()
	st := newTestStore(gw)

	_, err := st.AddItem(context.Background(), models.CollectionMappings, models.Mapping{
		CustomerID:   "c1",
		ProductID:    "p1",
		PurchaseDate: "2024-01-01",
	})
	require.NoError(t, err)

	raw := st.Raw()
	require.Len(t, raw.Logs, 1)
	assert.Equal(t, "New sale - warranty registered", raw.Logs[0].Action)
	assert.Equal(t, models.LogTypeWarrantySales, raw.Logs[0].LogType)

	// A second warranty for the same customer is labelled a renewal.
	_, err = st.AddItem(context.Background(), models.CollectionMappings, models.Mapping{
		CustomerID:   "c1",
		ProductID:    "p1",
		PurchaseDate: "2024-06-01",
	})
	require.NoError(t, err)

	raw = st.Raw()
	require.Len(t, raw.Logs, 2)
	assert.Equal(t, "Renewal - warranty registered", raw.Logs[1].Action)
}

func TestSetOnlineDrainsQueue(t *testing.T) {
	gw := newFakeGateway()
	gw.setUnreachable(true)
	st := newTestStore(gw)

	res, err := st.AddItem(context.Background(), models.CollectionCustomers, models.Customer{
		FirstName: "Suresh", MobileNumber: "+919812345678", VehicleNumber: "GJ05CD5678",
	})
	require.NoError(t, err)
	require.True(t, res.Offline)
	require.Equal(t, 1, st.Meta().QueueLength)

	gw.setUnreachable(false)
	st.SetOnline(context.Background(), true)

	meta := st.Meta()
	assert.True(t, meta.IsOnline)
	assert.Equal(t, 0, meta.QueueLength)

	// The replayed create reached the remote store and the reload swapped
	// in its server-assigned id.
	assert.Equal(t, 1, gw.count(models.CollectionCustomers))
	data := st.Data()
	require.Len(t, data.Customers, 1)
	assert.Equal(t, "remote-1", data.Customers[0].ID)
}

func TestDrainClearsQueueDespiteReplayFailures(t *testing.T) {
	gw := newFakeGateway()
	gw.setUnreachable(true)
	st := newTestStore(gw)

	_, err := st.AddItem(context.Background(), models.CollectionCustomers, models.Customer{FirstName: "Suresh"})
	require.NoError(t, err)
	require.Equal(t, 1, st.Meta().QueueLength)

	// Remote is back but rejects the replay; the descriptor is dropped, not
	// retried.
	gw.setUnreachable(false)
	gw.failWrites = errors.New("validation rejected")
	st.SetOnline(context.Background(), true)

	assert.Equal(t, 0, st.Meta().QueueLength)
	assert.Equal(t, 0, gw.count(models.CollectionCustomers))
}

func TestDeleteLeavesDependentsMasked(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(models.CollectionCustomers, "c1", `{"first_name":"Ramesh","last_name":"Patel"}`)
	gw.seed(models.CollectionMappings, "m1", `{"customer_id":"c1","product_id":"p1","product_purchase_date":"2024-01-01","product_warranty_period":12,"warranty_expiry_date":"2024-12-31"}`)

	st := newTestStore(gw)
	require.NoError(t, st.Bootstrap(context.Background()))
	defer st.Close()

	_, err := st.DeleteItem(context.Background(), models.CollectionCustomers, "c1")
	require.NoError(t, err)

	data := st.Data()
	assert.Empty(t, data.Customers)
	require.Len(t, data.Assignments, 1)
	assert.Equal(t, "", data.Assignments[0].CustomerName)
}

func TestRawReturnsDetachedSnapshot(t *testing.T) {
	gw := newFakeGateway()
	st := newTestStore(gw)

	res, err := st.AddItem(context.Background(), models.CollectionProducts, models.Product{
		Code: "CNG-SEQ-01", ProductName: "Sequential CNG Kit", WarrantyPeriodMonths: 12,
	})
	require.NoError(t, err)

	snapshot := st.Raw()
	require.Len(t, snapshot.Products, 1)

	_, err = st.DeleteItem(context.Background(), models.CollectionProducts, res.ID)
	require.NoError(t, err)

	// The snapshot taken before the delete is unaffected by the in-place
	// compaction of the store's own slices.
	require.Len(t, snapshot.Products, 1)
	assert.Equal(t, "Sequential CNG Kit", snapshot.Products[0].ProductName)
	assert.Empty(t, st.Raw().Products)
}

func TestRawSafeUnderConcurrentWrites(t *testing.T) {
	gw := newFakeGateway()
	st := newTestStore(gw)

	for i := 0; i < 20; i++ {
		_, err := st.AddItem(context.Background(), models.CollectionProducts, models.Product{
			Code: fmt.Sprintf("KIT-%d", i), ProductName: "Kit", WarrantyPeriodMonths: 12,
		})
		require.NoError(t, err)
	}
	ids := make([]string, 0, 20)
	for _, p := range st.Raw().Products {
		ids = append(ids, p.ID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			if id != ids[0] {
				_, _ = st.DeleteItem(context.Background(), models.CollectionProducts, id)
			}
			_, _ = st.UpdateItem(context.Background(), models.CollectionProducts, ids[0],
				map[string]any{"product_name": "Renamed Kit"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < len(ids); i++ {
			for _, p := range st.Raw().Products {
				_ = p.ProductName
			}
		}
	}()
	wg.Wait()

	require.Len(t, st.Raw().Products, 1)
	assert.Equal(t, "Renamed Kit", st.Raw().Products[0].ProductName)
}

func TestStaleSnapshotIgnoredOnBootstrap(t *testing.T) {
	mem := NewMemoryCache()
	snapshot, err := json.Marshal(models.RawData{
		Customers: []models.Customer{{ID: "c1", FirstName: "Stale"}},
	})
	require.NoError(t, err)
	require.NoError(t, mem.Save(SnapshotKey, snapshot))

	gw := newFakeGateway()
	gw.setUnreachable(true)

	// A clock far past the freshness window treats the snapshot as a miss,
	// so bootstrap has nothing to serve.
	st := New(gw, mem, mem, Options{
		Clock: func() time.Time { return time.Now().Add(time.Hour) },
	})
	assert.Error(t, st.Bootstrap(context.Background()))
	assert.Empty(t, st.Data().Customers)
}
