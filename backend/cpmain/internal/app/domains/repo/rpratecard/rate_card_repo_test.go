package rpratecard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq/backend/common/entity"
	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
)

func TestModelConversion(t *testing.T) {
	raw := []byte(`{"priorityPricing":{"base500gm":40}}`)
	card, err := etratecard.NewRateCard(7, "v7", raw, "note", "ops")
	require.NoError(t, err)

	po := toGormModel(card)
	assert.Equal(t, int64(7), po.ID)
	assert.JSONEq(t, string(raw), string(po.Table))

	back, err := toDomainModel(po)
	require.NoError(t, err)
	assert.Equal(t, card.Version, back.Version)
	assert.Equal(t, card.Table, back.Table)
	assert.Equal(t, "ops", back.CreatedBy)
}

func TestToDomainModel_CorruptTable(t *testing.T) {
	_, err := toDomainModel(&entity.RateCard{Version: "v1", Table: []byte(`{"standardDox":`), CreatedAt: time.Now()})
	assert.Error(t, err)
}

func TestToDomainModel_EmptyTable(t *testing.T) {
	card, err := toDomainModel(&entity.RateCard{Version: "v1", Table: []byte(`{}`), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, card.Table.Empty())
}
