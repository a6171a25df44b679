package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVariantID(t *testing.T) {
	cases := []struct {
		color, size, want string
	}{
		{"Red", "M", "red-m"},
		{"  Navy Blue ", "XL", "navyblue-xl"},
		{"BLACK", " 42 ", "black-42"},
		{"off white", "s", "offwhite-s"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, VariantID(tc.color, tc.size))
	}
}

func TestSumStock(t *testing.T) {
	require.Zero(t, SumStock(nil))
	require.Equal(t, 12, SumStock([]Variant{
		{ID: "red-m", Stock: 4},
		{ID: "red-l", Stock: 8},
	}))
}

func TestFindVariant(t *testing.T) {
	variants := []Variant{{ID: "red-m"}, {ID: "blue-s"}}

	idx, ok := FindVariant(variants, "blue-s")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = FindVariant(variants, "green-xl")
	require.False(t, ok)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "summer-dresses", Slugify("  Summer   Dresses "))
	require.Equal(t, "tees", Slugify("Tees"))
}

func TestBuildVariantsRejectsDuplicates(t *testing.T) {
	_, err := buildVariants([]VariantInput{
		{Color: "Red", Size: "M", Stock: 3},
		{Color: " red ", Size: "m", Stock: 5},
	})
	require.ErrorIs(t, err, ErrDuplicateVariant)

	variants, err := buildVariants([]VariantInput{
		{Color: "Red", Size: "M", Stock: 3},
		{Color: "Red", Size: "L", Stock: 5},
	})
	require.NoError(t, err)
	require.Equal(t, "red-m", variants[0].ID)
	require.Equal(t, "red-l", variants[1].ID)
}
