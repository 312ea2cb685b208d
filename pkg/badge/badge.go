// Package badge validates badge request parameters and builds redirect URLs
// for the external shields.io renderer.
package badge

import (
	"fmt"
	"net/url"
	"strings"
)

const shieldsBase = "https://img.shields.io/badge/"

const (
	DefaultLabel = "visits"
	DefaultColor = "4ade80"
	DefaultStyle = "flat"
)

// Params holds a validated badge request.
type Params struct {
	Tag   string
	Label string
	Color string
	Style string
	Logo  string
}

// ParseParams trims and validates raw query values, applying defaults for
// empty optional fields. Validation happens before any storage access.
func ParseParams(tag, label, color, style, logo string) (Params, error) {
	p := Params{
		Tag:   strings.TrimSpace(tag),
		Label: strings.TrimSpace(label),
		Color: strings.TrimSpace(color),
		Style: strings.TrimSpace(style),
		Logo:  strings.TrimSpace(logo),
	}
	if p.Label == "" {
		p.Label = DefaultLabel
	}
	if p.Color == "" {
		p.Color = DefaultColor
	}
	if p.Style == "" {
		p.Style = DefaultStyle
	}

	if err := checkLength("url", p.Tag, 1, 200); err != nil {
		return Params{}, err
	}
	if err := checkLength("label", p.Label, 1, 20); err != nil {
		return Params{}, err
	}
	if err := checkLength("color", p.Color, 3, 10); err != nil {
		return Params{}, err
	}
	if err := checkLength("style", p.Style, 2, 10); err != nil {
		return Params{}, err
	}
	if err := checkLength("logo", p.Logo, 0, 20); err != nil {
		return Params{}, err
	}
	return p, nil
}

func checkLength(field, value string, min, max int) error {
	if len(value) < min || len(value) > max {
		return fmt.Errorf("badge: %s must be %d-%d characters", field, min, max)
	}
	return nil
}

// ShieldsURL builds the redirect target for the given label and count.
// Label and logo are escaped; the shields path format is label-count-color.
func (p Params) ShieldsURL(count int64) string {
	var b strings.Builder
	b.WriteString(shieldsBase)
	b.WriteString(url.PathEscape(p.Label))
	b.WriteString(fmt.Sprintf("-%d-%s.svg?style=%s", count, p.Color, p.Style))
	if p.Logo != "" {
		b.WriteString("&logo=")
		b.WriteString(url.QueryEscape(p.Logo))
	}
	return b.String()
}
