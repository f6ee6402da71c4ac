package etratecard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq/backend/common/pricing"
)

func TestNewRateCard(t *testing.T) {
	raw := []byte(`{"priorityPricing":{"base500gm":"55"},"standardDox":{"train":{"assamToNe":12}}}`)

	card, err := NewRateCard(1, "v1", raw, "initial", "ops")
	require.NoError(t, err)
	assert.Equal(t, "v1", card.Version)
	assert.JSONEq(t, string(raw), string(card.Raw))
	assert.Equal(t, pricing.NewRate(55), card.Table.PriorityPricing.Base500g)
	assert.Equal(t, pricing.NewRate(12), card.Table.StandardDox.Train.Lookup(pricing.RouteAssamToNE))
	assert.False(t, card.CreatedAt.IsZero())
}

func TestParseTable_EmptyIsValid(t *testing.T) {
	table, err := ParseTable([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestNewRateCard_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		version string
		raw     string
		wantErr error
	}{
		{name: "missing version", version: "", raw: `{}`, wantErr: ErrInvalidVersion},
		{name: "empty table", version: "v1", raw: `{}`, wantErr: ErrEmptyTable},
		{name: "negative rate", version: "v1", raw: `{"priorityPricing":{"base500gm":-1}}`},
		{name: "not json", version: "v1", raw: `rates`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRateCard(1, tt.version, []byte(tt.raw), "", "")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
