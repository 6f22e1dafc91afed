package views

import (
	"sort"
	"time"

	"cngcrm-backend/models"
	"cngcrm-backend/utils"
)

// Compute derives the six cross-referenced views and the aggregate stats
// from the raw record sets. It is a pure function of its inputs: identical
// raw data and the same today produce structurally identical output. The
// caller reads the clock exactly once per recomputation so a mapping cannot
// flip between due and not due within a single pass.
func Compute(raw models.RawData, today time.Time) Data {
	customersByID := make(map[string]models.Customer, len(raw.Customers))
	for _, c := range raw.Customers {
		customersByID[c.ID] = c
	}
	productsByID := make(map[string]models.Product, len(raw.Products))
	for _, p := range raw.Products {
		productsByID[p.ID] = p
	}

	mappingsByCustomer := make(map[string][]models.Mapping)
	mappingsByProduct := make(map[string][]models.Mapping)
	for _, m := range raw.Mappings {
		mappingsByCustomer[m.CustomerID] = append(mappingsByCustomer[m.CustomerID], m)
		mappingsByProduct[m.ProductID] = append(mappingsByProduct[m.ProductID], m)
	}
	servicesByCustomer := make(map[string][]models.Service)
	servicesByProduct := make(map[string][]models.Service)
	for _, s := range raw.Services {
		servicesByCustomer[s.CustomerID] = append(servicesByCustomer[s.CustomerID], s)
		if s.ProductID != "" {
			servicesByProduct[s.ProductID] = append(servicesByProduct[s.ProductID], s)
		}
	}
	logsByCustomer := make(map[string][]models.LogEntry)
	for _, l := range raw.Logs {
		logsByCustomer[l.CustomerID] = append(logsByCustomer[l.CustomerID], l)
	}

	data := Data{
		Customers:      make([]CustomerView, 0, len(raw.Customers)),
		Products:       make([]ProductView, 0, len(raw.Products)),
		Assignments:    make([]AssignmentView, 0, len(raw.Mappings)),
		ServiceHistory: make([]ServiceHistoryView, 0, len(raw.Services)),
		Reminders:      make([]ReminderView, 0),
		ActivityLogs:   make([]ActivityView, 0, len(raw.Logs)),
	}

	for _, c := range raw.Customers {
		cv := CustomerView{
			Customer: c,
			FullName: c.FullName(),
			Products: make([]MappingSummary, 0),
			Services: servicesByCustomer[c.ID],
			Logs:     logsByCustomer[c.ID],
		}
		if cv.Services == nil {
			cv.Services = make([]models.Service, 0)
		}
		if cv.Logs == nil {
			cv.Logs = make([]models.LogEntry, 0)
		}
		for _, m := range mappingsByCustomer[c.ID] {
			p := productsByID[m.ProductID]
			cv.Products = append(cv.Products, MappingSummary{
				Mapping:     m,
				ProductName: p.ProductName,
				ProductType: p.ProductType,
			})
		}
		cv.ProductCount = len(cv.Products)
		cv.ServiceCount = len(cv.Services)
		data.Customers = append(data.Customers, cv)
	}

	for _, p := range raw.Products {
		pv := ProductView{
			Product:     p,
			Assignments: make([]AssignmentSummary, 0),
			Services:    servicesByProduct[p.ID],
		}
		if pv.Services == nil {
			pv.Services = make([]models.Service, 0)
		}
		for _, m := range mappingsByProduct[p.ID] {
			c := customersByID[m.CustomerID]
			pv.Assignments = append(pv.Assignments, AssignmentSummary{
				Mapping:       m,
				CustomerName:  c.FullName(),
				VehicleNumber: c.VehicleNumber,
			})
		}
		pv.AssignmentCount = len(pv.Assignments)
		pv.ServiceCount = len(pv.Services)
		data.Products = append(data.Products, pv)
	}

	for _, m := range raw.Mappings {
		// Dangling foreign keys join against zero-value placeholders.
		c := customersByID[m.CustomerID]
		p := productsByID[m.ProductID]
		av := AssignmentView{
			Mapping:      m,
			Customer:     c,
			Product:      p,
			CustomerName: c.FullName(),
			ProductName:  p.ProductName,
		}
		if days, ok := utils.DaysUntil(today, m.WarrantyExpiryDate); ok {
			d := days
			av.DaysUntilExpiry = &d
			av.IsExpired = days < 0
			av.IsExpiringSoon = days >= 0 && days <= 30
		}
		data.Assignments = append(data.Assignments, av)
	}

	for _, s := range raw.Services {
		c := customersByID[s.CustomerID]
		p := productsByID[s.ProductID]
		data.ServiceHistory = append(data.ServiceHistory, ServiceHistoryView{
			Service:       s,
			CustomerName:  c.FullName(),
			VehicleNumber: c.VehicleNumber,
			ProductName:   p.ProductName,
		})
	}

	for _, m := range raw.Mappings {
		if m.ReminderStatus.WarrantyRenewed {
			continue
		}
		days, ok := utils.DaysUntil(today, m.WarrantyExpiryDate)
		if !ok || days <= 0 {
			continue
		}
		c := customersByID[m.CustomerID]
		p := productsByID[m.ProductID]
		rv := ReminderView{
			Mapping:         m,
			CustomerName:    c.FullName(),
			MobileNumber:    c.MobileNumber,
			WhatsappNumber:  c.WhatsappNumber,
			ProductName:     p.ProductName,
			DaysUntilExpiry: days,
			ReminderLevel:   reminderLevel(days),
			ReminderToSend:  reminderToSend(m.ReminderStatus, days),
		}
		data.Reminders = append(data.Reminders, rv)
	}
	sort.SliceStable(data.Reminders, func(i, j int) bool {
		return data.Reminders[i].DaysUntilExpiry < data.Reminders[j].DaysUntilExpiry
	})

	for _, l := range raw.Logs {
		name := "Unknown"
		if c, ok := customersByID[l.CustomerID]; ok {
			name = c.FullName()
		}
		data.ActivityLogs = append(data.ActivityLogs, ActivityView{
			LogEntry:     l,
			CustomerName: name,
			ProductName:  productsByID[l.ProductID].ProductName,
		})
	}
	sort.SliceStable(data.ActivityLogs, func(i, j int) bool {
		return activitySortKey(data.ActivityLogs[i].LogEntry).After(activitySortKey(data.ActivityLogs[j].LogEntry))
	})

	data.Stats = computeStats(raw, data.Reminders)
	return data
}

// reminderLevel maps days-until-expiry to an urgency bucket.
func reminderLevel(days int) string {
	switch {
	case days <= 1:
		return LevelCritical
	case days <= 7:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// reminderToSend picks the tier due today. Tiers fire on the exact lead
// day (30/15/1), not a range, and only once each.
func reminderToSend(status models.ReminderStatus, days int) string {
	switch {
	case days == 30 && !status.Rem1Sent:
		return TierRem1
	case days == 15 && !status.Rem2Sent:
		return TierRem2
	case days == 1 && !status.Rem3Sent:
		return TierRem3
	default:
		return ""
	}
}

// activitySortKey orders logs by their business date, falling back to the
// creation timestamp when the date is absent or unparseable.
func activitySortKey(l models.LogEntry) time.Time {
	if t, ok := utils.ParseISODate(l.Date); ok {
		return t
	}
	return l.CreatedAt
}

func computeStats(raw models.RawData, reminders []ReminderView) Stats {
	stats := Stats{
		TotalCustomers:   len(raw.Customers),
		TotalProducts:    len(raw.Products),
		TotalAssignments: len(raw.Mappings),
		TotalServices:    len(raw.Services),
		TotalLogs:        len(raw.Logs),
		ActiveWarranties: len(reminders),
	}
	for _, r := range reminders {
		if r.DaysUntilExpiry <= 7 {
			stats.ExpiringThisWeek++
		}
		if r.DaysUntilExpiry <= 30 {
			stats.ExpiringThisMonth++
		}
	}
	for _, s := range raw.Services {
		if s.ServiceStatus == models.ServiceStatusPending {
			stats.PendingServices++
		}
	}
	for _, m := range raw.Mappings {
		if m.ReminderStatus.WarrantyRenewed {
			stats.RenewedWarranties++
		}
	}
	return stats
}
