package order

import (
	"testing"

	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsPatch_Apply(t *testing.T) {
	p := OptionsPatch{
		ServiceType:     strPtr("fedex_ground"),
		PackagingType:   strPtr("YOUR_PACKAGING"),
		WeightKG:        decPtr("1.2"),
		HarmonizedCode:  strPtr("6109100010"),
		DimensionUnit:   strPtr("cm"),
		DimensionLength: decPtr("10"),
	}

	got, err := p.Apply(CarrierOptions{})
	require.NoError(t, err)
	assert.Equal(t, ServiceFedExGround, *got.ServiceType)
	assert.Equal(t, PackagingYourPackaging, *got.PackagingType)
	assert.Equal(t, "6109100010", *got.HarmonizedCode)
	require.NotNil(t, got.Dimensions)
	assert.Equal(t, DimensionCM, *got.Dimensions.Unit)
	assert.False(t, got.Dimensions.IsComplete())
}

func TestOptionsPatch_RejectsInvalidFields(t *testing.T) {
	current := CarrierOptions{}
	p := OptionsPatch{
		ServiceType:     strPtr("TELEPORT"),
		PickupType:      strPtr("DROPOFF_AT_FEDEX_LOCATION"),
		HarmonizedCode:  strPtr("6109.10"),
		CustomsCurrency: strPtr("XYZ"),
		WeightKG:        decPtr("0"),
	}

	got, err := p.Apply(current)
	require.Error(t, err)
	assert.Equal(t, current, got)

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, shared.CodeValidation, de.Code)

	fields := make([]string, 0, len(de.Fields))
	for _, f := range de.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"serviceType", "harmonizedCode", "customsCurrency", "weightKg"}, fields)
}

func TestOptionsPatch_EmptyStringClears(t *testing.T) {
	svc := ServiceFedEx2Day
	current := CarrierOptions{ServiceType: &svc}

	got, err := OptionsPatch{ServiceType: strPtr("")}.Apply(current)
	require.NoError(t, err)
	assert.Nil(t, got.ServiceType)
}

func TestPackageDimensions_IsComplete(t *testing.T) {
	unit := DimensionIN
	bad := DimensionUnit("FT")
	ten := decimal.NewFromInt(10)
	zero := decimal.Zero

	tests := []struct {
		name string
		dims *PackageDimensions
		want bool
	}{
		{"nil", nil, false},
		{"complete", &PackageDimensions{Length: &ten, Width: &ten, Height: &ten, Unit: &unit}, true},
		{"missing height", &PackageDimensions{Length: &ten, Width: &ten, Unit: &unit}, false},
		{"zero width", &PackageDimensions{Length: &ten, Width: &zero, Height: &ten, Unit: &unit}, false},
		{"no unit", &PackageDimensions{Length: &ten, Width: &ten, Height: &ten}, false},
		{"bad unit", &PackageDimensions{Length: &ten, Width: &ten, Height: &ten, Unit: &bad}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dims.IsComplete())
		})
	}
}

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, IsCurrencyCode("USD"))
	assert.True(t, IsCurrencyCode("TRY"))
	assert.False(t, IsCurrencyCode("XYZ"))
	assert.False(t, IsCurrencyCode("US"))
}

func TestCatalog(t *testing.T) {
	c := Catalog()
	assert.Contains(t, c.ServiceTypes, ServiceInternationalPriority)
	assert.Contains(t, c.DimensionUnits, DimensionCM)
	assert.Len(t, c.PaymentTypes, 3)
	for _, s := range c.SignatureTypes {
		assert.True(t, s.IsValid())
	}
	assert.False(t, SignatureServiceDefault.RequiresSpecialService())
	assert.True(t, SignatureAdult.RequiresSpecialService())
}
