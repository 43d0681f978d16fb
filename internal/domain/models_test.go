package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressSingleLine(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"full", Address{"1 Main St", "Austin", "TX", "USA"}, "1 Main St, Austin, TX, USA"},
		{"drops empty parts", Address{"", "Austin", "  ", "USA"}, "Austin, USA"},
		{"empty", Address{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.addr.SingleLine())
		})
	}
}

func TestProductDecodeLenientNumbers(t *testing.T) {
	var products []Product
	body := `[
		{"_id":"p1","name":"Thermometer","price":"19.5","soldCount":"12"},
		{"id":"p2","name":"Mask","price":null,"stock":-3},
		{"id":"p3","name":"Gloves","price":"n/a","soldCount":{"x":1}}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &products))
	require.Len(t, products, 3)

	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, 19.5, products[0].Price.Float())
	assert.Equal(t, 12, products[0].SoldCount.Int())

	assert.Equal(t, 0.0, products[1].Price.Float())
	assert.Equal(t, 0, products[1].Stock.Int())

	assert.Equal(t, 0.0, products[2].Price.Float())
	assert.Equal(t, 0, products[2].SoldCount.Int())
}

func TestProviderDecode(t *testing.T) {
	var p Provider
	body := `{"_id":"d1","name":"Dr. Lee","specialization":"Cardiologist","experience":"7",
		"address":{"street":"5 Elm","city":"Boston"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	assert.Equal(t, "d1", p.ID)
	assert.Equal(t, 7, p.ExperienceYears.Int())
	assert.Equal(t, "5 Elm, Boston", p.Address.SingleLine())
}

func TestProviderDecodeExperienceYearsKey(t *testing.T) {
	var providers []Provider
	body := `[
		{"id":"junior","specialization":"Cardiologist","experienceYears":2},
		{"id":"senior","specialization":"Cardiologist","experienceYears":"20"},
		{"id":"both","experience":3,"experienceYears":9},
		{"id":"legacy","experience":4}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &providers))
	require.Len(t, providers, 4)

	assert.Equal(t, 2, providers[0].ExperienceYears.Int())
	assert.Equal(t, 20, providers[1].ExperienceYears.Int())
	assert.Equal(t, 9, providers[2].ExperienceYears.Int())
	assert.Equal(t, 4, providers[3].ExperienceYears.Int())
}

func TestAppointmentRecordDecode(t *testing.T) {
	var records []AppointmentRecord
	body := `[
		{"_id":"a1","date":"2026-10-01T14:30:00Z","status":"Completed"},
		{"id":"a2","date":"2026-10-02","status":"no-show"},
		{"id":"a3","date":"garbage"},
		{"id":"a4","date":"2026-10-03","status":"cancelled"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &records))

	assert.Equal(t, StatusCompleted, records[0].Status)
	assert.Equal(t, time.Date(2026, 10, 1, 14, 30, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, StatusScheduled, records[1].Status)
	assert.True(t, records[2].Date.IsZero())
	assert.Equal(t, StatusScheduled, records[2].Status)
	assert.Equal(t, StatusCancelled, records[3].Status)
}
