package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableURL(t *testing.T) {
	assert.Equal(t, "https://resto.test/session?table_id=abc", TableURL("https://resto.test/", "abc"))
}

func TestTablePNG(t *testing.T) {
	data, err := TablePNG("https://resto.test", "abc", 128)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}
