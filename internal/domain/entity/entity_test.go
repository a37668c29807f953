package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ArchIntel/pkg/errors"
)

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindOffice, ParseKind("office"))
	assert.Equal(t, KindProject, ParseKind("project"))
	assert.Equal(t, KindRegulation, ParseKind("regulation"))
	assert.Equal(t, KindUnknown, ParseKind("company"))
	assert.Equal(t, KindUnknown, ParseKind(""))
}

func TestGeoPointMatching(t *testing.T) {
	london := GeoPoint{City: "London", Country: "UK"}
	assert.True(t, london.SameCity(GeoPoint{City: "london"}))
	assert.True(t, london.SameCountry(GeoPoint{Country: "uk"}))
	assert.False(t, london.SameCity(GeoPoint{City: "Tokyo"}))
	assert.False(t, GeoPoint{}.SameCity(GeoPoint{}))
	assert.False(t, GeoPoint{}.SameCountry(GeoPoint{}))
}

func TestBodyOmitsAbsentFields(t *testing.T) {
	office := &Office{Name: "Foster + Partners"}
	body, err := Body(office)
	require.NoError(t, err)
	assert.Equal(t, "Foster + Partners", body["name"])
	_, hasFounded := body["founded"]
	assert.False(t, hasFounded, "zero-valued scalars must not appear in the body")
}

func TestBodyDecodeRoundTrip(t *testing.T) {
	office := &Office{
		ID:      "UKLO123",
		Name:    "Foster + Partners",
		Founded: 1967,
		Status:  OfficeActive,
		Location: OfficeLocation{
			Headquarters: GeoPoint{City: "London", Country: "UK"},
			OtherOffices: []string{"Tokyo"},
		},
		Specializations: []string{"airports", "towers"},
		Version:         2,
	}
	body, err := Body(office)
	require.NoError(t, err)

	var decoded Office
	require.NoError(t, Decode(body, &decoded))
	assert.Equal(t, office.ID, decoded.ID)
	assert.Equal(t, office.Founded, decoded.Founded)
	assert.Equal(t, office.Location.Headquarters, decoded.Location.Headquarters)
	assert.Equal(t, office.Specializations, decoded.Specializations)
	assert.Equal(t, office.Version, decoded.Version)
}

func TestSizeCategoryFor(t *testing.T) {
	tests := []struct {
		count int
		want  SizeCategory
	}{
		{0, SizeBoutique},
		{9, SizeBoutique},
		{10, SizeMedium},
		{12, SizeMedium},
		{49, SizeMedium},
		{50, SizeLarge},
		{199, SizeLarge},
		{200, SizeGlobal},
		{5000, SizeGlobal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeCategoryFor(tt.count), "count=%d", tt.count)
	}
}

func TestOfficeValidateForCreate(t *testing.T) {
	office := &Office{Name: "Foster + Partners"}
	err := office.ValidateForCreate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeHeadquartersMissing))

	office.Location.Headquarters = GeoPoint{City: "London", Country: "UK"}
	assert.NoError(t, office.ValidateForCreate())

	office.Name = "  "
	err = office.ValidateForCreate()
	assert.True(t, errors.IsCode(err, errors.ErrCodeEntityNameMissing))
}

func TestProjectValidateForCreate(t *testing.T) {
	p := &Project{}
	assert.True(t, errors.IsCode(p.ValidateForCreate(), errors.ErrCodeEntityNameMissing))
	p.ProjectName = "Thames Tower"
	assert.NoError(t, p.ValidateForCreate())
}

func TestRegulationValidateForCreate(t *testing.T) {
	r := &Regulation{}
	assert.True(t, errors.IsCode(r.ValidateForCreate(), errors.ErrCodeEntityNameMissing))
	r.Name = "Part L"
	assert.NoError(t, r.ValidateForCreate())
}

func TestTimestampsTouchIsMonotonic(t *testing.T) {
	ts := NewTimestamps()
	ts.Touch()
	assert.False(t, ts.UpdatedAt.Before(ts.CreatedAt))
}

func TestRelationshipInvolves(t *testing.T) {
	rel := &Relationship{
		SourceEntity: EntityRef{Type: KindOffice, ID: "O1"},
		TargetEntity: EntityRef{Type: KindProject, ID: "P1"},
	}
	assert.True(t, rel.Involves(KindOffice, "O1"))
	assert.True(t, rel.Involves(KindProject, "P1"))
	assert.False(t, rel.Involves(KindOffice, "P1"))
	assert.False(t, rel.Involves(KindRegulation, "R1"))
}
