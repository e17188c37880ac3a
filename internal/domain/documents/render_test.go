package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateops/internal/core/apperror"
)

func TestExtractVars(t *testing.T) {
	body := `<p>Dear {{buyer_name}},</p>
<p>{{ property_name }} in {{project_name}} costs {{price}}.</p>
<p>Again: {{buyer_name}}.</p>`

	vars := ExtractVars(body)
	assert.Equal(t, []string{"buyer_name", "price", "project_name", "property_name"}, vars)
}

func TestExtractVarsInsideConditionals(t *testing.T) {
	body := `{{#if down_payment_value > 0.0}}Deposit: {{down_payment}}{{else}}No deposit, {{buyer_name}}{{/if}}`

	vars := ExtractVars(body)
	assert.Equal(t, []string{"buyer_name", "down_payment"}, vars)
}

func TestRenderSubstitutes(t *testing.T) {
	got, err := Render("Dear {{buyer_name}}, re {{property_name}}.", map[string]any{
		"buyer_name":    "Jane Mwangi",
		"property_name": "A-101",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dear Jane Mwangi, re A-101.", got)
}

func TestRenderMissingFactIsEmpty(t *testing.T) {
	got, err := Render("Hello {{buyer_name}}{{missing}}!", map[string]any{"buyer_name": "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Jane!", got)
}

func TestRenderConditional(t *testing.T) {
	body := `{{#if down_payment_value >= 100000.0}}High deposit{{else}}Standard deposit{{/if}}`

	got, err := Render(body, map[string]any{"down_payment_value": 200000.0})
	require.NoError(t, err)
	assert.Equal(t, "High deposit", got)

	got, err = Render(body, map[string]any{"down_payment_value": 50000.0})
	require.NoError(t, err)
	assert.Equal(t, "Standard deposit", got)
}

func TestRenderConditionalWithoutElse(t *testing.T) {
	body := `Price: {{price}}.{{#if notes != ""}} Notes: {{notes}}{{/if}}`

	got, err := Render(body, map[string]any{"price": "KES 1,000.00", "notes": ""})
	require.NoError(t, err)
	assert.Equal(t, "Price: KES 1,000.00.", got)
}

func TestRenderStringCondition(t *testing.T) {
	body := `{{#if property_type == "UNIT"}}apartment{{else}}house{{/if}}`

	got, err := Render(body, map[string]any{"property_type": "UNIT"})
	require.NoError(t, err)
	assert.Equal(t, "apartment", got)
}

func TestRenderInvalidCondition(t *testing.T) {
	_, err := Render(`{{#if 1 +}}x{{/if}}`, map[string]any{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRenderNonBooleanCondition(t *testing.T) {
	_, err := Render(`{{#if price_value}}x{{/if}}`, map[string]any{"price_value": 100.0})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestFilterFacts(t *testing.T) {
	body := `{{buyer_name}} {{#if down_payment_value > 0.0}}paid{{/if}}`
	facts := map[string]any{
		"buyer_name":         "Jane",
		"down_payment_value": 100.0,
		"unused":             "noise",
	}

	got := FilterFacts(body, facts)
	assert.Contains(t, got, "buyer_name")
	assert.Contains(t, got, "down_payment_value")
	assert.NotContains(t, got, "unused")
}
