package dataapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wolfman30/healthhub-platform/internal/domain"
)

// ProductQuery selects one server page of products.
type ProductQuery struct {
	Page     int
	Limit    int
	Category string
}

// AppointmentRequest is the booking payload.
type AppointmentRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// Validate performs the required-field checks.
func (r AppointmentRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.DoctorID) == "":
		return missingField("doctorId")
	case strings.TrimSpace(r.Date) == "":
		return missingField("date")
	case strings.TrimSpace(r.Time) == "":
		return missingField("time")
	}
	return nil
}

// Appointment is the created appointment record.
type Appointment struct {
	ID       string                   `json:"id"`
	DoctorID string                   `json:"doctorId"`
	Date     string                   `json:"date"`
	Time     string                   `json:"time"`
	Status   domain.AppointmentStatus `json:"status"`
}

// AdminResource names a paginated admin listing.
type AdminResource string

const (
	AdminAppointments   AdminResource = "appointments"
	AdminDoctors        AdminResource = "doctors"
	AdminPatients       AdminResource = "patients"
	AdminPrescriptions  AdminResource = "prescriptions"
	AdminMedicalRecords AdminResource = "medical-records"
)

// ParseAdminResource validates a listing name from a URL segment.
func ParseAdminResource(raw string) (AdminResource, bool) {
	switch r := AdminResource(strings.TrimSpace(raw)); r {
	case AdminAppointments, AdminDoctors, AdminPatients, AdminPrescriptions, AdminMedicalRecords:
		return r, true
	}
	return "", false
}

// ListDoctors returns every provider.
func (c *Client) ListDoctors(ctx context.Context) ([]domain.Provider, error) {
	env, err := getEnvelope[[]domain.Provider](ctx, c, "list_doctors", http.MethodGet, "/doctors", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListProducts fetches one server-paginated page of products.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*Page[domain.Product], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		values.Set("category", category)
	}
	env, err := getEnvelope[[]domain.Product](ctx, c, "list_products", http.MethodGet, "/products?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return pageFrom(env, q.Page), nil
}

// PersonalizedRecommendations returns products recommended for the caller.
func (c *Client) PersonalizedRecommendations(ctx context.Context) ([]domain.Product, error) {
	env, err := getEnvelope[[]domain.Product](ctx, c, "recommend_personalized", http.MethodGet, "/products/recommend/personalized", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// DiseaseRecommendations returns products recommended for a condition.
func (c *Client) DiseaseRecommendations(ctx context.Context, disease string) ([]domain.Product, error) {
	disease = strings.TrimSpace(disease)
	if disease == "" {
		return nil, missingField("disease")
	}
	body := map[string]string{"disease": disease}
	env, err := getEnvelope[[]domain.Product](ctx, c, "recommend_disease", http.MethodPost, "/products/recommend/disease", body)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateAppointment books an appointment after required-field checks.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := getEnvelope[Appointment](ctx, c, "create_appointment", http.MethodPost, "/appointments", req)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// ListAdmin returns one page of an admin listing with opaque items.
func (c *Client) ListAdmin(ctx context.Context, resource AdminResource, page, limit int) (*Page[json.RawMessage], error) {
	if page < 1 {
		page = 1
	}
	path := fmt.Sprintf("/admin/%s?%s", resource, pageQuery(page, limit))
	env, err := getEnvelope[[]json.RawMessage](ctx, c, "admin_list_"+string(resource), http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return pageFrom(env, page), nil
}

// ListAppointmentRecords returns one page of admin appointments decoded as
// timestamped records.
func (c *Client) ListAppointmentRecords(ctx context.Context, page, limit int) (*Page[domain.AppointmentRecord], error) {
	if page < 1 {
		page = 1
	}
	path := "/admin/appointments?" + pageQuery(page, limit)
	env, err := getEnvelope[[]domain.AppointmentRecord](ctx, c, "admin_list_appointment_records", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return pageFrom(env, page), nil
}

// AdminStats returns the dashboard counters.
func (c *Client) AdminStats(ctx context.Context) (json.RawMessage, error) {
	env, err := getEnvelope[json.RawMessage](ctx, c, "admin_stats", http.MethodGet, "/admin/stats", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// PendingVerifications lists provider verifications awaiting review.
func (c *Client) PendingVerifications(ctx context.Context) ([]json.RawMessage, error) {
	env, err := getEnvelope[[]json.RawMessage](ctx, c, "admin_verifications_pending", http.MethodGet, "/admin/verifications/pending", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetVerification returns one verification request.
func (c *Client) GetVerification(ctx context.Context, id string) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, missingField("id")
	}
	path := "/admin/verifications/" + url.PathEscape(id)
	env, err := getEnvelope[json.RawMessage](ctx, c, "admin_verification_get", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ApproveVerification approves a verification with optional notes.
func (c *Client) ApproveVerification(ctx context.Context, id, notes string) error {
	if strings.TrimSpace(id) == "" {
		return missingField("id")
	}
	path := "/admin/verifications/" + url.PathEscape(id) + "/approve"
	_, err := c.do(ctx, "admin_verification_approve", http.MethodPost, path, map[string]string{"notes": notes})
	return err
}

// RejectVerification rejects a verification. A reason is mandatory and is
// checked before any request is sent.
func (c *Client) RejectVerification(ctx context.Context, id, reason, notes string) error {
	if strings.TrimSpace(id) == "" {
		return missingField("id")
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	path := "/admin/verifications/" + url.PathEscape(id) + "/reject"
	_, err := c.do(ctx, "admin_verification_reject", http.MethodPost, path, map[string]string{"reason": reason, "notes": notes})
	return err
}

// ToggleUserStatus flips a user's active flag.
func (c *Client) ToggleUserStatus(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return missingField("id")
	}
	_, err := c.do(ctx, "admin_user_toggle", http.MethodPatch, "/admin/users/"+url.PathEscape(id)+"/toggle-status", nil)
	return err
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return missingField("id")
	}
	_, err := c.do(ctx, "admin_user_delete", http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil)
	return err
}

func pageQuery(page, limit int) string {
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	return values.Encode()
}
