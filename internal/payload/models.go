package payload

// CollegePayload is an institution in the store's external schema.
type CollegePayload struct {
	Latitude  *float64          `json:"latitude"`
	Longitude *float64          `json:"longitude"`
	Name      string            `json:"name"`
	Location  string            `json:"location"`
	Website   string            `json:"website"`
	Resources []ResourcePayload `json:"resources"`
}

// ResourcePayload is a resource in the store's external schema.
type ResourcePayload struct {
	ServiceName    string `json:"serviceName"`
	Description    string `json:"description"`
	ContactEmail   string `json:"contactEmail"`
	ContactPhone   string `json:"contactPhone"`
	ContactWebsite string `json:"contactWebsite"`
	Department     string `json:"department"`
	OfficeHours    string `json:"officeHours"`
	Location       string `json:"location"`
	FreshmanNotes  string `json:"freshmanNotes"`
	CollegeID      int    `json:"collegeId"`
}

// StoredCollege is a college as returned by the store's read endpoint.
type StoredCollege struct {
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	Name      string           `json:"name"`
	Location  string           `json:"location"`
	Website   string           `json:"website"`
	Resources []StoredResource `json:"resources"`
	ID        int              `json:"id"`
}

// StoredResource is a persisted resource with its identifiers.
type StoredResource struct {
	ResourcePayload
	ID int `json:"id"`
}

// BulkResult is the store's reply to a bulk upsert.
type BulkResult struct {
	Message string `json:"message"`
}
