package qr

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/pkg/errors"
)

func TestPNGEncoder_Encode(t *testing.T) {
	enc := NewPNGEncoder(0)

	uri, err := enc.Encode("a1b2c3d4")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, DataURIPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, DataURIPrefix))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestPNGEncoder_DifferentPayloads(t *testing.T) {
	enc := NewPNGEncoder(128)

	a, err := enc.Encode("card-1")
	require.NoError(t, err)
	b, err := enc.Encode(`{"id":"m1","type":"manager"}`)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPNGEncoder_EmptyPayload(t *testing.T) {
	_, err := NewPNGEncoder(64).Encode("")
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}
