package fixture

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_SizesCycle(t *testing.T) {
	for i, want := range []image.Point{{640, 480}, {480, 640}, {512, 512}, {640, 480}} {
		img, err := Sample(i)
		require.NoError(t, err)
		assert.Equal(t, want, img.Bounds().Size(), "sample %d", i)
	}
}

func TestSample_Distinct(t *testing.T) {
	a, err := SamplePNG(0)
	require.NoError(t, err)
	b, err := SamplePNG(6)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, b), "same colour and size but different labels must differ")
}

func TestSampleJPEG_Decodes(t *testing.T) {
	data, err := SampleJPEG(1)
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}
