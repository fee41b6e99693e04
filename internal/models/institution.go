// Package models defines the records that flow through the catalogue pipeline.
package models

import "time"

// Institution is one college or university and the services it offers.
type Institution struct {
	ScrapedAt time.Time  `json:"scraped_at,omitzero"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Name      string     `json:"name"`
	State     string     `json:"state,omitempty"`
	Location  string     `json:"location"`
	Website   string     `json:"website"`
	Resources []Resource `json:"resources"`
}

// Resource is a single mental-health service offered by an institution.
type Resource struct {
	ServiceName    string `json:"service_name"`
	Description    string `json:"description"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone"`
	ContactWebsite string `json:"contact_website"`
	Department     string `json:"department"`
	OfficeHours    string `json:"office_hours"`
	Location       string `json:"location"`
	FreshmanNotes  string `json:"freshman_notes"`
}

// HasContact reports whether at least one contact channel is set.
func (r *Resource) HasContact() bool {
	return r.ContactEmail != "" || r.ContactPhone != "" || r.ContactWebsite != ""
}

// Coord returns a pointer to v, for building institutions in code.
func Coord(v float64) *float64 {
	return &v
}
