package hks_test

import (
	"testing"

	"github.com/chazu/luidec/pkg/hks"
	"github.com/chazu/luidec/pkg/hks/hkstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalFileRoundTrip(t *testing.T) {
	hash := uint32(77)
	fn := sampleFunc()
	fn.Debug = &hash
	fn.Closures = []*hkstest.Func{{Params: 4}}

	f, err := hks.Decode(hkstest.New(fn).Bytes())
	require.NoError(t, err)

	data, err := hks.MarshalFile(f)
	require.NoError(t, err)

	got, err := hks.UnmarshalFile(data)
	require.NoError(t, err)

	assert.Equal(t, f.Header, got.Header)
	assert.Equal(t, f.Root.Listing(), got.Root.Listing())
	assert.Equal(t, f.Root.Constants, got.Root.Constants)
	require.NotNil(t, got.Root.Debug)
	assert.Equal(t, hash, got.Root.Debug.Hash)
}

func TestMarshalFileDeterministic(t *testing.T) {
	f, err := hks.Decode(hkstest.New(sampleFunc()).Bytes())
	require.NoError(t, err)

	a, err := hks.MarshalFile(f)
	require.NoError(t, err)
	b, err := hks.MarshalFile(f)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUnmarshalIntegerConstants(t *testing.T) {
	c := hkstest.New(&hkstest.Func{Constants: []hkstest.Const{hkstest.Int(5), hkstest.Int(-5)}})
	c.NumberType = hks.NumberInt

	f, err := hks.Decode(c.Bytes())
	require.NoError(t, err)
	data, err := hks.MarshalFile(f)
	require.NoError(t, err)
	got, err := hks.UnmarshalFile(data)
	require.NoError(t, err)

	assert.Equal(t, int64(5), got.Root.Constants[0].Value)
	assert.Equal(t, int64(-5), got.Root.Constants[1].Value)
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := hks.UnmarshalFile([]byte{0xFF, 0x00})
	assert.Error(t, err)
}
