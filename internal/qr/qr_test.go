package qr

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"strings"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPayload = "SPD*1.0*ACC:CZ6508000000192000145399*AM:1500.00*CC:CZK*X-VS:20240001*MSG:FAKTURA20240001*RN:Acme s.r.o."

func TestRasterizeDefaults(t *testing.T) {
	data, err := NewEncoder().Rasterize(testPayload, DefaultOptions())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	// quiet zone
	white := color.GrayModel.Convert(color.White)
	assert.Equal(t, white, color.GrayModel.Convert(img.At(0, 0)))
	assert.Equal(t, white, color.GrayModel.Convert(img.At(299, 299)))

	// the top-left finder pattern starts inside the margin
	code, err := qrcode.New(testPayload, qrcode.Highest)
	require.NoError(t, err)
	code.DisableBorder = true
	modules := len(code.Bitmap())
	scale := 300 / (modules + 4)
	offset := (300 - modules*scale) / 2
	assert.GreaterOrEqual(t, offset, 2*scale)
	assert.Equal(t, color.GrayModel.Convert(color.Black), color.GrayModel.Convert(img.At(offset, offset)))
	assert.Equal(t, white, color.GrayModel.Convert(img.At(offset-1, offset-1)))
}

func TestRasterizeCustomSize(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 512
	opts.Margin = 4
	opts.Level = qrcode.Medium

	data, err := NewEncoder().Rasterize(testPayload, opts)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
}

func TestRasterizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		mutate  func(*Options)
		wantErr error
	}{
		{name: "format", mutate: func(o *Options) { o.Format = "svg" }, wantErr: ErrUnsupportedFormat},
		{name: "too small", mutate: func(o *Options) { o.Size = 20 }, wantErr: ErrInvalidSize},
		{name: "zero size", mutate: func(o *Options) { o.Size = 0 }, wantErr: ErrInvalidSize},
		{name: "negative margin", mutate: func(o *Options) { o.Margin = -1 }, wantErr: ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			data, err := NewEncoder().Rasterize(testPayload, opts)
			assert.Nil(t, data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRasterizePayloadTooLong(t *testing.T) {
	_, err := NewEncoder().Rasterize(strings.Repeat("X", 5000), DefaultOptions())
	require.Error(t, err)
}

func TestDataURI(t *testing.T) {
	uri := DataURI([]byte{0x89, 'P', 'N', 'G'})
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, DataURIPrefix))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]qrcode.RecoveryLevel{
		"L":        qrcode.Low,
		"m":        qrcode.Medium,
		"Q":        qrcode.High,
		"H":        qrcode.Highest,
		" high ":   qrcode.Highest,
		"quartile": qrcode.High,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("X")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}
