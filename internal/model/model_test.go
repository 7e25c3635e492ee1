package model

import (
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hospital-siting/internal/geo"
)

func validZone() UrbanZone {
	return UrbanZone{
		ID:               "z1",
		Name:             "Centro",
		Population:       10000,
		DeprivationIndex: 0.8,
		Center:           geo.Coordinate{Lat: 20.05, Lng: -103.05},
	}
}

func TestHospitalTypeJSON(t *testing.T) {
	var h Hospital
	err := json.Unmarshal([]byte(`{"id":"h1","name":"Civil","location":{"lat":20.67,"lng":-103.35},"capacity":500,"type":"general"}`), &h)
	require.NoError(t, err)
	assert.Equal(t, HospitalGeneral, h.Type)
	assert.Equal(t, 500, h.Capacity)

	err = json.Unmarshal([]byte(`{"id":"h2","type":"Hospice"}`), &h)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidRecord))
}

func TestParseHospitalType(t *testing.T) {
	tests := []struct {
		in   string
		want HospitalType
	}{
		{"General", HospitalGeneral},
		{" clinic ", HospitalClinic},
		{"SPECIALIZED", HospitalSpecialized},
		{"specialised", HospitalSpecialized},
	}
	for _, tt := range tests {
		got, err := ParseHospitalType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestHospitalValidate(t *testing.T) {
	ok := Hospital{ID: "h1", Location: geo.Coordinate{Lat: 20, Lng: -103}, Capacity: 10, Type: HospitalClinic}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name string
		mut  func(h *Hospital)
	}{
		{"missing id", func(h *Hospital) { h.ID = "" }},
		{"missing location", func(h *Hospital) { h.Location = geo.Coordinate{} }},
		{"bad latitude", func(h *Hospital) { h.Location.Lat = 95 }},
		{"negative capacity", func(h *Hospital) { h.Capacity = -1 }},
		{"unknown type", func(h *Hospital) { h.Type = "Hospice" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ok
			tt.mut(&h)
			err := h.Validate()
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidRecord))
		})
	}
}

func TestZoneValidate(t *testing.T) {
	assert.NoError(t, validZone().Validate())

	tests := []struct {
		name string
		mut  func(z *UrbanZone)
	}{
		{"missing id", func(z *UrbanZone) { z.ID = "" }},
		{"zero population", func(z *UrbanZone) { z.Population = 0 }},
		{"negative population", func(z *UrbanZone) { z.Population = -5 }},
		{"deprivation above one", func(z *UrbanZone) { z.DeprivationIndex = 1.2 }},
		{"deprivation below zero", func(z *UrbanZone) { z.DeprivationIndex = -0.1 }},
		{"missing center", func(z *UrbanZone) { z.Center = geo.Coordinate{} }},
		{"short ring", func(z *UrbanZone) { z.Bounds = []geo.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}} }},
		{"closed ring with two vertices", func(z *UrbanZone) {
			z.Bounds = []geo.Coordinate{{Lat: 20, Lng: -103}, {Lat: 20.1, Lng: -103}, {Lat: 20, Lng: -103}}
		}},
		{"bad ring point", func(z *UrbanZone) {
			z.Bounds = []geo.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 100, Lng: 2}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := validZone()
			tt.mut(&z)
			err := z.Validate()
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidRecord))
		})
	}
}

func TestZoneValidate_Rings(t *testing.T) {
	openRing := validZone()
	openRing.Bounds = []geo.Coordinate{{Lat: 20, Lng: -103}, {Lat: 20.1, Lng: -103}, {Lat: 20.1, Lng: -102.9}}
	assert.NoError(t, openRing.Validate())

	closed := validZone()
	closed.Bounds = append(append([]geo.Coordinate{}, openRing.Bounds...), openRing.Bounds[0])
	assert.NoError(t, closed.Validate())

	degenerate := validZone()
	degenerate.Bounds = []geo.Coordinate{{Lat: 20, Lng: -103}, {Lat: 20.1, Lng: -103}, {Lat: 20, Lng: -103}}
	err := degenerate.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 4 points")
}

func TestZeroCoordinateMessage(t *testing.T) {
	h := Hospital{ID: "h1", Location: geo.Coordinate{}}
	assert.Contains(t, h.Validate().Error(), "coordinate (0,0) treated as missing")

	z := validZone()
	z.Center = geo.Coordinate{}
	assert.Contains(t, z.Validate().Error(), "coordinate (0,0) treated as missing")
}

func TestHospitalValidate_TypeOptional(t *testing.T) {
	h := Hospital{ID: "h1", Location: geo.Coordinate{Lat: 20, Lng: -103}}
	assert.NoError(t, h.Validate())
}

func TestLocations(t *testing.T) {
	hs := []Hospital{
		{ID: "a", Location: geo.Coordinate{Lat: 1, Lng: 2}},
		{ID: "b", Location: geo.Coordinate{Lat: 3, Lng: 4}},
	}
	assert.Equal(t, []geo.Coordinate{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}, Locations(hs))
	assert.Empty(t, Locations(nil))
}
