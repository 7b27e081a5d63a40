package qr_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"qrpay/internal/config"
	"qrpay/internal/gateway/qr"

	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r, err := qr.NewRenderer(config.QR{Size: 300, Margin: 2, Foreground: "#000000", Background: "#FFFFFF"})
	require.NoError(t, err)

	out, err := r.Render(context.Background(), "http://localhost:3000/pay-vendor/123")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 300, img.Bounds().Dx())
	require.Equal(t, 300, img.Bounds().Dy())

	r0, g0, b0, _ := img.At(0, 0).RGBA()
	require.Equal(t, uint32(0xffff), r0&g0&b0, "quiet zone must be background")
}

func TestRenderer_MarginAndColors(t *testing.T) {
	const content = "http://localhost:3000/pay-vendor/123"

	testCases := []struct {
		desc   string
		margin int
	}{
		{"NoMargin", 0},
		{"DefaultMargin", 2},
		{"WideMargin", 6},
	}

	offsets := make([]int, 0, len(testCases))
	for _, tc := range testCases {
		r, err := qr.NewRenderer(config.QR{Size: 300, Margin: tc.margin, Foreground: "#AA0000", Background: "#FFFFFF"})
		require.NoError(t, err, tc.desc)

		out, err := r.Render(context.Background(), content)
		require.NoError(t, err, tc.desc)
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
		require.NoError(t, err, tc.desc)
		img, err := png.Decode(bytes.NewReader(raw))
		require.NoError(t, err, tc.desc)

		offset := -1
		for d := 0; d < img.Bounds().Dx(); d++ {
			cr, cg, cb, _ := img.At(d, d).RGBA()
			if cr>>8 == 0xAA && cg == 0 && cb == 0 {
				offset = d
				break
			}
		}
		require.GreaterOrEqual(t, offset, 0, "%s: foreground colour not drawn", tc.desc)
		offsets = append(offsets, offset)
	}

	require.Less(t, offsets[0], offsets[1])
	require.Less(t, offsets[1], offsets[2])
}

func TestNewRenderer_InvalidColor(t *testing.T) {
	testCases := []struct {
		desc  string
		input config.QR
	}{
		{"ShortHex", config.QR{Size: 300, Foreground: "#000", Background: "#FFFFFF"}},
		{"NotHex", config.QR{Size: 300, Foreground: "#000000", Background: "#GGGGGG"}},
		{"ZeroSize", config.QR{Size: 0, Foreground: "#000000", Background: "#FFFFFF"}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			_, err := qr.NewRenderer(tc.input)
			require.Error(t, err)
		})
	}
}
