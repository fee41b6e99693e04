package payload

import (
	"mhdb/internal/models"
)

// DefaultServiceName is used when a resource carries no service name.
const DefaultServiceName = "Counseling Services"

// MapResource converts a resource to the external schema. collegeID is 0
// until the store has assigned the parent an identifier.
func MapResource(r models.Resource, collegeID int) ResourcePayload {
	name := r.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	return ResourcePayload{
		CollegeID:      collegeID,
		ServiceName:    name,
		Description:    r.Description,
		ContactEmail:   r.ContactEmail,
		ContactPhone:   r.ContactPhone,
		ContactWebsite: r.ContactWebsite,
		Department:     r.Department,
		OfficeHours:    r.OfficeHours,
		Location:       r.Location,
		FreshmanNotes:  r.FreshmanNotes,
	}
}

// MapCollege converts an institution and its resources to the external schema.
func MapCollege(inst models.Institution) CollegePayload {
	resources := make([]ResourcePayload, 0, len(inst.Resources))
	for _, r := range inst.Resources {
		resources = append(resources, MapResource(r, 0))
	}

	return CollegePayload{
		Name:      inst.Name,
		Location:  inst.Location,
		Latitude:  copyCoord(inst.Latitude),
		Longitude: copyCoord(inst.Longitude),
		Website:   inst.Website,
		Resources: resources,
	}
}

// MapColleges converts every institution, preserving order.
func MapColleges(insts []models.Institution) []CollegePayload {
	out := make([]CollegePayload, 0, len(insts))
	for _, inst := range insts {
		out = append(out, MapCollege(inst))
	}

	return out
}

func copyCoord(v *float64) *float64 {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}
