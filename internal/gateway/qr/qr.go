package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"qrpay/internal/config"

	qrcode "github.com/skip2/go-qrcode"
)

const _dataURLPrefix = "data:image/png;base64,"

// Renderer encodes URLs as square PNG QR codes returned as data URLs.
type Renderer struct {
	size       int
	margin     int
	foreground color.Color
	background color.Color
}

func NewRenderer(cfg config.QR) (*Renderer, error) {
	fg, err := parseHexColor(cfg.Foreground)
	if err != nil {
		return nil, fmt.Errorf("gateway.qr.NewRenderer: foreground: %w", err)
	}
	bg, err := parseHexColor(cfg.Background)
	if err != nil {
		return nil, fmt.Errorf("gateway.qr.NewRenderer: background: %w", err)
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("gateway.qr.NewRenderer: size must be positive, got %d", cfg.Size)
	}

	return &Renderer{
		size:       cfg.Size,
		margin:     cfg.Margin,
		foreground: fg,
		background: bg,
	}, nil
}

// Render draws content with a quiet zone of margin modules, scaled to fit size pixels.
func (r *Renderer) Render(_ context.Context, content string) (string, error) {
	const op = "gateway.qr.Render"

	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("%s: encode: %w", op, err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	modules := len(bitmap) + 2*r.margin
	scale := max(r.size/modules, 1)
	canvasSize := max(r.size, scale*modules)
	offset := (canvasSize - scale*len(bitmap)) / 2

	img := image.NewPaletted(
		image.Rect(0, 0, canvasSize, canvasSize),
		color.Palette{r.background, r.foreground},
	)
	draw.Draw(img, img.Bounds(), &image.Uniform{C: r.background}, image.Point{}, draw.Src)

	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			cell := image.Rect(
				offset+x*scale, offset+y*scale,
				offset+(x+1)*scale, offset+(y+1)*scale,
			)
			draw.Draw(img, cell, &image.Uniform{C: r.foreground}, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%s: png: %w", op, err)
	}

	return _dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func parseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
