package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	var c Codec
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&AddExpenseRequest{Code: "MESA-AB12", Item: "Beer", Value: 30, PaidBy: "m1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"MESA-AB12","item":"Beer","value":30,"paid_by":"m1"}`, string(data))

	var got AddExpenseRequest
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, "Beer", got.Item)
	assert.Empty(t, got.Consumers)
}

func TestCodec_EmptyBody(t *testing.T) {
	var got ListTablesRequest
	require.NoError(t, Codec{}.Unmarshal(nil, &got))
	assert.Equal(t, ListTablesRequest{}, got)

	assert.Error(t, Codec{}.Unmarshal([]byte("{"), &got))
}
