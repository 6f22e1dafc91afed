package views

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cngcrm-backend/models"
)

func fixtureRaw() models.RawData {
	return models.RawData{
		Customers: []models.Customer{
			{
				ID:            "c1",
				FirstName:     "Ramesh",
				LastName:      "Patel",
				MobileNumber:  "+919876543210",
				VehicleNumber: "GJ01AB1234",
			},
		},
		Products: []models.Product{
			{
				ID:                      "p1",
				Code:                    "CNG-SEQ-01",
				ProductName:             "Sequential CNG Kit",
				ProductType:             "Sequential",
				WarrantyPeriodMonths:    12,
				DefaultServiceCycleDays: 180,
			},
		},
		Mappings: []models.Mapping{
			{
				ID:                   "m1",
				CustomerID:           "c1",
				ProductID:            "p1",
				PurchaseDate:         "2024-01-01",
				WarrantyPeriodMonths: 12,
				WarrantyExpiryDate:   "2024-12-31",
			},
		},
		Services: []models.Service{
			{
				ID:            "s1",
				CustomerID:    "c1",
				ProductID:     "p1",
				ServiceDate:   "2024-06-01",
				ServiceType:   models.ServiceTypeRegular,
				ServiceStatus: models.ServiceStatusPending,
			},
		},
		Logs: []models.LogEntry{
			{
				ID:         "l1",
				CustomerID: "c1",
				ProductID:  "p1",
				Action:     "New sale - warranty registered",
				Date:       "2024-01-01",
				LogType:    models.LogTypeWarrantySales,
			},
		},
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeJoinsViews(t *testing.T) {
	data := Compute(fixtureRaw(), day("2024-12-01"))

	require.Len(t, data.Customers, 1)
	cv := data.Customers[0]
	assert.Equal(t, "Ramesh Patel", cv.FullName)
	require.Len(t, cv.Products, 1)
	assert.Equal(t, "Sequential CNG Kit", cv.Products[0].ProductName)
	assert.Equal(t, 1, cv.ProductCount)
	assert.Equal(t, 1, cv.ServiceCount)

	require.Len(t, data.Products, 1)
	pv := data.Products[0]
	require.Len(t, pv.Assignments, 1)
	assert.Equal(t, "Ramesh Patel", pv.Assignments[0].CustomerName)
	assert.Equal(t, "GJ01AB1234", pv.Assignments[0].VehicleNumber)

	require.Len(t, data.Assignments, 1)
	av := data.Assignments[0]
	require.NotNil(t, av.DaysUntilExpiry)
	assert.Equal(t, 30, *av.DaysUntilExpiry)
	assert.False(t, av.IsExpired)
	assert.True(t, av.IsExpiringSoon)

	require.Len(t, data.ServiceHistory, 1)
	assert.Equal(t, "Sequential CNG Kit", data.ServiceHistory[0].ProductName)

	require.Len(t, data.ActivityLogs, 1)
	assert.Equal(t, "Ramesh Patel", data.ActivityLogs[0].CustomerName)
}

func TestReminderTiersFireOnExactDays(t *testing.T) {
	raw := fixtureRaw()

	tests := []struct {
		name  string
		today string
		want  string
		level string
	}{
		{"thirty days out", "2024-12-01", TierRem1, LevelInfo},
		{"thirty-one days out", "2024-11-30", "", LevelInfo},
		{"twenty-nine days out", "2024-12-02", "", LevelInfo},
		{"fifteen days out", "2024-12-16", TierRem2, LevelInfo},
		{"seven days out", "2024-12-24", "", LevelWarning},
		{"one day out", "2024-12-30", TierRem3, LevelCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := Compute(raw, day(tt.today))
			require.Len(t, data.Reminders, 1)
			assert.Equal(t, tt.want, data.Reminders[0].ReminderToSend)
			assert.Equal(t, tt.level, data.Reminders[0].ReminderLevel)
		})
	}
}

func TestReminderTiersFireOnlyOnce(t *testing.T) {
	raw := fixtureRaw()
	raw.Mappings[0].ReminderStatus.Rem1Sent = true

	data := Compute(raw, day("2024-12-01"))
	require.Len(t, data.Reminders, 1)
	assert.Equal(t, "", data.Reminders[0].ReminderToSend)
}

func TestRenewalSuppressesReminders(t *testing.T) {
	raw := fixtureRaw()
	raw.Mappings[0].ReminderStatus.WarrantyRenewed = true

	data := Compute(raw, day("2024-12-01"))
	assert.Empty(t, data.Reminders)
	assert.Equal(t, 1, data.Stats.RenewedWarranties)
	assert.Equal(t, 0, data.Stats.ActiveWarranties)
}

func TestExpiredAndUndatedMappingsExcludedFromReminders(t *testing.T) {
	raw := fixtureRaw()
	raw.Mappings = append(raw.Mappings,
		models.Mapping{ID: "m2", CustomerID: "c1", ProductID: "p1", WarrantyExpiryDate: "2024-06-30"},
		models.Mapping{ID: "m3", CustomerID: "c1", ProductID: "p1"},
		models.Mapping{ID: "m4", CustomerID: "c1", ProductID: "p1", WarrantyExpiryDate: "2024-12-01"},
	)

	// m2 expired, m3 has no expiry, m4 expires today (not strictly future).
	data := Compute(raw, day("2024-12-01"))
	require.Len(t, data.Reminders, 1)
	assert.Equal(t, "m1", data.Reminders[0].ID)
}

func TestExpiryAnnotationsMutuallyExclusive(t *testing.T) {
	raw := fixtureRaw()

	tests := []struct {
		name    string
		today   string
		expired bool
		soon    bool
	}{
		{"well before expiry", "2024-10-01", false, false},
		{"inside the soon window", "2024-12-15", false, true},
		{"expiry day", "2024-12-31", false, true},
		{"after expiry", "2025-01-10", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := Compute(raw, day(tt.today))
			require.Len(t, data.Assignments, 1)
			av := data.Assignments[0]
			assert.Equal(t, tt.expired, av.IsExpired)
			assert.Equal(t, tt.soon, av.IsExpiringSoon)
		})
	}
}

func TestRemindersSortedByUrgency(t *testing.T) {
	raw := fixtureRaw()
	raw.Mappings = append(raw.Mappings,
		models.Mapping{ID: "m2", CustomerID: "c1", ProductID: "p1", WarrantyExpiryDate: "2024-12-05"},
		models.Mapping{ID: "m3", CustomerID: "c1", ProductID: "p1", WarrantyExpiryDate: "2025-03-01"},
	)

	data := Compute(raw, day("2024-12-01"))
	require.Len(t, data.Reminders, 3)
	assert.Equal(t, "m2", data.Reminders[0].ID)
	assert.Equal(t, "m1", data.Reminders[1].ID)
	assert.Equal(t, "m3", data.Reminders[2].ID)
}

func TestDanglingReferencesJoinToPlaceholders(t *testing.T) {
	raw := fixtureRaw()
	raw.Mappings[0].CustomerID = "gone"
	raw.Logs[0].CustomerID = "gone"

	data := Compute(raw, day("2024-12-01"))

	require.Len(t, data.Assignments, 1)
	assert.Equal(t, "", data.Assignments[0].CustomerName)
	assert.Equal(t, "", data.Assignments[0].Customer.ID)

	// Activity logs are the one view that substitutes a label.
	require.Len(t, data.ActivityLogs, 1)
	assert.Equal(t, "Unknown", data.ActivityLogs[0].CustomerName)
}

func TestComputeIsPure(t *testing.T) {
	raw := fixtureRaw()
	today := day("2024-12-01")

	first := Compute(raw, today)
	second := Compute(raw, today)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	raw := fixtureRaw()
	want := fixtureRaw()

	Compute(raw, day("2024-12-01"))
	assert.True(t, reflect.DeepEqual(want, raw))
}

func TestActivityLogsNewestFirst(t *testing.T) {
	raw := fixtureRaw()
	raw.Logs = append(raw.Logs,
		models.LogEntry{ID: "l2", CustomerID: "c1", Action: "Service visit recorded (Regular)", Date: "2024-06-01", LogType: models.LogTypeService},
		models.LogEntry{ID: "l3", CustomerID: "c1", Action: "Reminder sent (rem_1_sent)", Date: "2024-12-01", LogType: models.LogTypeReminder},
	)

	data := Compute(raw, day("2024-12-01"))
	require.Len(t, data.ActivityLogs, 3)
	assert.Equal(t, "l3", data.ActivityLogs[0].ID)
	assert.Equal(t, "l2", data.ActivityLogs[1].ID)
	assert.Equal(t, "l1", data.ActivityLogs[2].ID)
}

func TestStatsConsistency(t *testing.T) {
	raw := fixtureRaw()
	raw.Mappings = append(raw.Mappings,
		models.Mapping{ID: "m2", CustomerID: "c1", ProductID: "p1", WarrantyExpiryDate: "2024-12-05"},
		models.Mapping{ID: "m3", CustomerID: "c1", ProductID: "p1", WarrantyExpiryDate: "2025-06-01",
			ReminderStatus: models.ReminderStatus{WarrantyRenewed: true}},
	)

	data := Compute(raw, day("2024-12-01"))
	stats := data.Stats

	assert.Equal(t, 1, stats.TotalCustomers)
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, 3, stats.TotalAssignments)
	assert.Equal(t, 1, stats.TotalServices)
	assert.Equal(t, 1, stats.TotalLogs)

	assert.Equal(t, len(data.Reminders), stats.ActiveWarranties)
	assert.Equal(t, 2, stats.ActiveWarranties)
	assert.Equal(t, 1, stats.ExpiringThisWeek)  // m2, 4 days out
	assert.Equal(t, 2, stats.ExpiringThisMonth) // m2 and m1
	assert.Equal(t, 1, stats.PendingServices)
	assert.Equal(t, 1, stats.RenewedWarranties)
}
