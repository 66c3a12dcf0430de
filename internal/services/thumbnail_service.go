package services

import (
	"fmt"
	"net/url"
	"strconv"

	"placesmap/internal/config"
)

type ThumbnailRenderer interface {
	// Render returns the static map URL for a pin, or ok=false when no image can be produced.
	Render(lat, lng float64) (string, bool)
}

// MapboxStaticRenderer builds Mapbox Static Images URLs. It does no I/O.
type MapboxStaticRenderer struct {
	AccessToken string
	Style       string
	PinColor    string
	Zoom        int
	Width       int
	Height      int
	BaseURL     string
}

func NewMapboxStaticRenderer(cfg config.MapboxConfig) ThumbnailRenderer {
	return &MapboxStaticRenderer{
		AccessToken: cfg.Token,
		Style:       cfg.Style,
		PinColor:    cfg.PinColor,
		Zoom:        cfg.Zoom,
		Width:       cfg.Width,
		Height:      cfg.Height,
		BaseURL:     "https://api.mapbox.com",
	}
}

func (r *MapboxStaticRenderer) Render(lat, lng float64) (string, bool) {
	if r.AccessToken == "" {
		return "", false
	}

	style := r.Style
	if style == "" {
		style = "streets-v12"
	}
	color := r.PinColor
	if color == "" {
		color = "dc2626"
	}
	zoom, width, height := r.Zoom, r.Width, r.Height
	if zoom <= 0 {
		zoom = 12
	}
	if width <= 0 || height <= 0 {
		width, height = 300, 200
	}

	x, y := formatCoord(lng), formatCoord(lat)
	return fmt.Sprintf("%s/styles/v1/mapbox/%s/static/pin-s-marker+%s(%s,%s)/%s,%s,%d,0/%dx%d?access_token=%s",
		r.BaseURL, style, color, x, y, x, y, zoom, width, height, url.QueryEscape(r.AccessToken)), true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
