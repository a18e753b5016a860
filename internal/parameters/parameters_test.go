package parameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigString(t *testing.T) {
	params := NewFromConfigString("a=1,b,c=x=y")
	assert.Equal(t, "1", params["a"])
	assert.Equal(t, "", params["b"])
	assert.Equal(t, "x=y", params["c"])
	assert.Empty(t, NewFromConfigString(""))
}

func TestGetParamOr(t *testing.T) {
	params := NewFromConfigString("count=3,ratio=0.5,flag,off=false,name=foo,big=18446744073709551615")

	count, err := GetParamOr(params, "count", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	missing, err := GetParamOr(params, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, missing)

	ratio, err := GetParamOr(params, "ratio", 0.0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	flag, err := GetParamOr(params, "flag", false)
	require.NoError(t, err)
	assert.True(t, flag)

	off, err := GetParamOr(params, "off", true)
	require.NoError(t, err)
	assert.False(t, off)

	name, err := GetParamOr(params, "name", "")
	require.NoError(t, err)
	assert.Equal(t, "foo", name)

	big, err := GetParamOr(params, "big", uint64(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), big)

	_, err = GetParamOr(params, "name", 0)
	assert.Error(t, err)
}

func TestPopParamOr(t *testing.T) {
	params := NewFromConfigString("a=1")
	v, err := PopParamOr(params, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.NotContains(t, params, "a")
}

func TestPopPairOr(t *testing.T) {
	params := NewFromConfigString("size=7x5,bad=7by5")

	w, h, err := PopPairOr(params, "size", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, w)
	assert.Equal(t, 5, h)
	assert.NotContains(t, params, "size")

	w, h, err = PopPairOr(params, "missing", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, w)
	assert.Equal(t, 4, h)

	_, _, err = PopPairOr(params, "bad", 0, 0)
	assert.Error(t, err)
}

func TestCheckExhausted(t *testing.T) {
	assert.NoError(t, CheckExhausted(NewFromConfigString("")))
	err := CheckExhausted(NewFromConfigString("typo=1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo")
}
