package validate_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinoteca/winestock/validate"
)

// =============================================================================
// STRING AND SELECTION
// =============================================================================

func TestString(t *testing.T) {
	// GIVEN: Assorted raw name inputs
	// WHEN: Validating them
	// THEN: Trimmed values pass, short ones fail with the exact message

	got, err := validate.String("name", "  Malbec  ")
	require.NoError(t, err)
	assert.Equal(t, "Malbec", got)

	_, err = validate.String("name", " x ")
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrValidation)
	assert.Equal(t, "The field 'Name' should have at least 2 characters.", err.Error())

	_, err = validate.String("wine name", "")
	require.Error(t, err)
	assert.Equal(t, "The field 'Wine Name' should have at least 2 characters.", err.Error())

	// Labels starting with a multi-byte rune title-case cleanly.
	_, err = validate.String("état", "")
	require.Error(t, err)
	assert.Equal(t, "The field 'État' should have at least 2 characters.", err.Error())
}

func TestSelection(t *testing.T) {
	got, err := validate.Selection("colour", " Red ")
	require.NoError(t, err)
	assert.Equal(t, "red", got)

	_, err = validate.Selection("colour", "   ")
	require.Error(t, err)
	assert.Equal(t, "You haven't selected an option for the field 'Colour'.", err.Error())
}

// =============================================================================
// NUMBERS
// =============================================================================

func TestYear(t *testing.T) {
	year, err := validate.Year("vintage year", " 2019 ")
	require.NoError(t, err)
	assert.Equal(t, 2019, year)

	_, err = validate.Year("vintage year", "abcd")
	require.Error(t, err)
	assert.Equal(t, "The field 'Vintage Year' should contain only numbers.", err.Error())

	current := time.Now().Year()
	_, err = validate.Year("vintage year", fmt.Sprint(current+1))
	require.Error(t, err)
	assert.Equal(t,
		fmt.Sprintf("The field 'Vintage Year' should be between 0 and %d.", current),
		err.Error())

	_, err = validate.Year("vintage year", "-5")
	assert.Error(t, err)
}

func TestInt_SignConstraints(t *testing.T) {
	n, err := validate.Int("quantity", "42", validate.Positive)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = validate.Int("quantity", "-3", validate.Positive)
	require.Error(t, err)
	assert.Equal(t, "The field 'Quantity' should contain a number bigger than 0.", err.Error())

	_, err = validate.Int("adjustment", "3", validate.Negative)
	require.Error(t, err)
	assert.Equal(t, "The field 'Adjustment' should contain a number lower than 0.", err.Error())

	n, err = validate.Int("delta", "-7", validate.AnySign)
	require.NoError(t, err)
	assert.Equal(t, -7, n)
}

// =============================================================================
// DECIMALS
// =============================================================================

func TestDecimal(t *testing.T) {
	d, err := validate.Decimal("price", " 12.5 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromFloat(12.5)))

	// A bare dot means zero.
	d, err = validate.Decimal("price", ".")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = validate.Decimal("price", "12,50")
	require.Error(t, err)
	assert.Equal(t, "The field 'Price' should contain a price separated by dot.", err.Error())
}

func TestPrice(t *testing.T) {
	d, err := validate.Price("selling price", "9.999")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromFloat(10.00)))

	_, err = validate.Price("selling price", "-1")
	require.Error(t, err)
	assert.Equal(t, "The field 'Selling Price' should not be negative.", err.Error())
}

// =============================================================================
// STRUCT VALIDATION
// =============================================================================

type form struct {
	Name   string          `label:"name" validate:"required,min=2,max=100"`
	Colour int64           `label:"colour" validate:"required"`
	Year   int             `label:"vintage year" validate:"gte=0,pastyear"`
	Price  decimal.Decimal `label:"price" validate:"gte=0"`
}

func validForm() form {
	return form{Name: "Malbec", Colour: 1, Year: 2019, Price: decimal.NewFromInt(10)}
}

func TestStruct_FirstFailureOnly(t *testing.T) {
	// GIVEN: A form failing several rules at once
	// WHEN: Validating
	// THEN: Only the first failure is reported, as a FieldError

	f := form{Name: "", Colour: 0}
	err := validate.Struct(&f)
	require.Error(t, err)

	var fe *validate.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)
	assert.ErrorIs(t, err, validate.ErrValidation)
}

func TestStruct_MessageWording(t *testing.T) {
	f := validForm()
	f.Name = "x"
	err := validate.Struct(&f)
	require.Error(t, err)
	assert.Equal(t, "The field 'Name' should have at least 2 characters.", err.Error())

	f = validForm()
	f.Colour = 0
	err = validate.Struct(&f)
	require.Error(t, err)
	assert.Equal(t, "You haven't selected an option for the field 'Colour'.", err.Error())

	f = validForm()
	f.Year = time.Now().Year() + 1
	err = validate.Struct(&f)
	require.Error(t, err)
	assert.Equal(t,
		fmt.Sprintf("The field 'Vintage Year' should be between 0 and %d.", time.Now().Year()),
		err.Error())

	f = validForm()
	f.Price = decimal.NewFromInt(-2)
	err = validate.Struct(&f)
	require.Error(t, err)
	assert.Equal(t, "The field 'Price' should not be negative.", err.Error())
}

func TestStruct_ValidFormPasses(t *testing.T) {
	f := validForm()
	assert.NoError(t, validate.Struct(&f))
}
