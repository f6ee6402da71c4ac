package pricing

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRateTable_DecodeJSON(t *testing.T) {
	data, err := os.ReadFile("testdata/rate_table.json")
	require.NoError(t, err)

	var table RateTable
	require.NoError(t, json.Unmarshal(data, &table))

	assert.Equal(t, NewRate(50), table.StandardDox.Road.Upto500g.Lookup(RouteAssamToNE), "numeric strings are accepted")
	assert.False(t, table.StandardDox.Road.Add500g.Lookup(RouteAssamToROI).Valid, "null is a missing rate")
	assert.Equal(t, 40.0, table.PriorityPricing.Base500g.OrZero())
	assert.False(t, table.Empty())
}

func TestRateTable_DecodeYAML(t *testing.T) {
	data, err := os.ReadFile("testdata/rate_table.yaml")
	require.NoError(t, err)

	var table RateTable
	require.NoError(t, yaml.Unmarshal(data, &table))

	assert.Nil(t, table.StandardDox.Air)
	assert.Equal(t, NewRate(30), table.StandardDox.Road.Add500g.Lookup(RouteAssamToNE))
	assert.False(t, table.StandardDox.Road.Add500g.Lookup(RouteAssamToROI).Valid)
	assert.Equal(t, NewRate(15), table.StandardNonDox.Train.Lookup(RouteAssamToROI))

	q, err := ComputeQuote(&table, ServiceStandard, ConsignmentDox, ModeRoad, pinNE, 0.6)
	require.NoError(t, err)
	assert.Equal(t, 230.0, q.Amount)
}

func TestRate_JSON(t *testing.T) {
	var r Rate
	require.NoError(t, json.Unmarshal([]byte(`-3`), &r))
	assert.False(t, r.Valid, "negative rates are treated as missing")

	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &r))
	assert.Equal(t, NewRate(12.5), r)

	require.NoError(t, json.Unmarshal([]byte(`"n/a"`), &r))
	assert.False(t, r.Valid)

	assert.Error(t, json.Unmarshal([]byte(`{"v":1}`), &r))

	out, err := json.Marshal(PriorityPricing{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"base500gm":null}`, string(out))
}

func TestValidateRaw(t *testing.T) {
	data, err := os.ReadFile("testdata/rate_table.json")
	require.NoError(t, err)
	assert.NoError(t, ValidateRaw(data))

	err = ValidateRaw([]byte(`{"standardDox":{"train":{"assamToNe":-1}},"priorityPricing":{"base500gm":-40}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priorityPricing.base500gm, standardDox.train.assamToNe")

	assert.Error(t, ValidateRaw([]byte(`not json`)))
}

func TestRateTable_Empty(t *testing.T) {
	assert.True(t, (&RateTable{}).Empty())
	assert.True(t, (*RateTable)(nil).Empty())
}
