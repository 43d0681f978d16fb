// Package domain holds the value snapshots exchanged with the data API.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Address is a provider's postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// SingleLine joins the non-empty address parts for geocoding.
func (a Address) SingleLine() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Provider is a medical practitioner record.
type Provider struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization"`
	Address         Address `json:"address"`
	ExperienceYears Count   `json:"experience"`
	Fee             Number  `json:"fee"`
}

// UnmarshalJSON accepts both "id" and Mongo-style "_id" identifiers, and
// "experienceYears" as well as "experience". "experienceYears" wins when
// both are present.
func (p *Provider) UnmarshalJSON(data []byte) error {
	type alias Provider
	var raw struct {
		alias
		MongoID         string `json:"_id"`
		ExperienceYears *Count `json:"experienceYears"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Provider(raw.alias)
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	if raw.ExperienceYears != nil {
		p.ExperienceYears = *raw.ExperienceYears
	}
	return nil
}

// Product is a catalog listing.
type Product struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Price     Number   `json:"price"`
	Stock     Count    `json:"stock"`
	SoldCount Count    `json:"soldCount"`
	Images    []string `json:"images,omitempty"`
}

// UnmarshalJSON accepts both "id" and "_id" identifiers.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.alias)
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	return nil
}

// AppointmentStatus is the lifecycle bucket of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// ParseAppointmentStatus maps raw status text to a bucket. Anything other
// than completed or cancelled counts as scheduled.
func ParseAppointmentStatus(raw string) AppointmentStatus {
	switch AppointmentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusScheduled
	}
}

// UnmarshalJSON normalizes unknown or missing statuses to scheduled.
func (s *AppointmentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = StatusScheduled
		return nil
	}
	*s = ParseAppointmentStatus(raw)
	return nil
}

// AppointmentRecord is a timestamped, status-tagged appointment.
type AppointmentRecord struct {
	ID     string            `json:"id"`
	Date   time.Time         `json:"date"`
	Status AppointmentStatus `json:"status"`
}

// UnmarshalJSON accepts "_id", RFC 3339 timestamps or bare dates. An
// unparseable date leaves the zero time, which falls outside any window.
func (r *AppointmentRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      string            `json:"id"`
		MongoID string            `json:"_id"`
		Date    string            `json:"date"`
		Status  AppointmentStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = raw.ID
	if r.ID == "" {
		r.ID = raw.MongoID
	}
	r.Status = raw.Status
	if r.Status == "" {
		r.Status = StatusScheduled
	}
	r.Date = parseDate(raw.Date)
	return nil
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GeoPoint is a resolved coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}
