package models

// Collection names used against the remote document store and as local
// cache keys.
const (
	CollectionCustomers = "customers"
	CollectionProducts  = "products"
	CollectionMappings  = "mappings"
	CollectionServices  = "services"
	CollectionLogs      = "logs"
)

// Collections lists every collection the unified store loads and watches.
var Collections = []string{
	CollectionCustomers,
	CollectionProducts,
	CollectionMappings,
	CollectionServices,
	CollectionLogs,
}

// RawData holds the last-known raw record sets. It is the single source of
// truth; every derived view is recomputed from it in full.
type RawData struct {
	Customers []Customer `json:"customers"`
	Products  []Product  `json:"products"`
	Mappings  []Mapping  `json:"mappings"`
	Services  []Service  `json:"services"`
	Logs      []LogEntry `json:"logs"`
}
