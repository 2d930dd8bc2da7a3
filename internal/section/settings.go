// Package section stores the site-wide page sections (header, hero,
// footer, about, events page) as versioned, typed settings.
package section

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/citybites/site/internal/media"
)

// CurrentVersion is the settings schema version written on save.
const CurrentVersion = 2

const (
	KeyHeader = "header"
	KeyHero   = "hero"
	KeyFooter = "footer"
	KeyAbout  = "about"
	KeyEvents = "events"
)

// Keys lists every section in display order.
var Keys = []string{KeyHeader, KeyHero, KeyFooter, KeyAbout, KeyEvents}

var (
	// ErrNotFound is returned for keys that name no section.
	ErrNotFound = fmt.Errorf("section %w", media.ErrNotFound)
	// ErrInvalidSettings wraps malformed settings payloads.
	ErrInvalidSettings = errors.New("invalid section settings")
)

// ValidKey reports whether key names a section.
func ValidKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Settings is the typed content of one section.
type Settings interface {
	// Paths returns every blob path the settings reference.
	Paths() []string
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Header struct {
	LogoPath string `json:"logoPath"`
	Links    []Link `json:"links"`
}

func (h *Header) Paths() []string { return nonEmpty(h.LogoPath) }

type Hero struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	CTALabel string   `json:"ctaLabel"`
	CTAHref  string   `json:"ctaHref"`
	Images   []string `json:"images"`
}

func (h *Hero) Paths() []string { return append([]string(nil), h.Images...) }

type Footer struct {
	Text         string `json:"text"`
	ContactEmail string `json:"contactEmail"`
	Links        []Link `json:"links"`
}

func (*Footer) Paths() []string { return nil }

type About struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	ImagePath string `json:"imagePath"`
}

func (a *About) Paths() []string { return nonEmpty(a.ImagePath) }

type EventsPage struct {
	Title    string `json:"title"`
	Intro    string `json:"intro"`
	ShowPast bool   `json:"showPast"`
}

func (*EventsPage) Paths() []string { return nil }

func nonEmpty(p string) []string {
	if p == "" {
		return nil
	}
	return []string{p}
}

// Defaults returns a fresh copy of the default settings for key.
func Defaults(key string) (Settings, error) {
	switch key {
	case KeyHeader:
		return &Header{Links: []Link{
			{Label: "Restaurants", Href: "/restaurants"},
			{Label: "Events", Href: "/events"},
			{Label: "About", Href: "/about"},
		}}, nil
	case KeyHero:
		return &Hero{
			Title:    "Eat local, eat together",
			Subtitle: "Independent kitchens and food events across the city.",
			CTALabel: "See upcoming events",
			CTAHref:  "/events",
			Images:   []string{},
		}, nil
	case KeyFooter:
		return &Footer{Text: "City Bites", Links: []Link{}}, nil
	case KeyAbout:
		return &About{Title: "About the initiative"}, nil
	case KeyEvents:
		return &EventsPage{Title: "Events"}, nil
	default:
		return nil, ErrNotFound
	}
}

// Decode turns stored settings of the given schema version into the
// current typed value. Stored fields override defaults; absent fields
// keep them. Empty raw decodes to the defaults.
func Decode(key string, version int, raw []byte) (Settings, error) {
	s, err := Defaults(key)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return s, nil
	}
	if version > CurrentVersion {
		return nil, fmt.Errorf("%w: %s version %d is newer than %d", ErrInvalidSettings, key, version, CurrentVersion)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	if version < 2 {
		if err := migrateV1(key, fields); err != nil {
			return nil, err
		}
	}

	migrated, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(migrated, s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	return s, nil
}

// migrateV1 moves the single v1 hero "image" into the v2 "images" list.
func migrateV1(key string, fields map[string]json.RawMessage) error {
	if key != KeyHero {
		return nil
	}
	legacy, ok := fields["image"]
	if !ok {
		return nil
	}
	delete(fields, "image")
	if _, ok := fields["images"]; ok {
		return nil
	}

	var image *string
	if err := json.Unmarshal(legacy, &image); err != nil {
		return fmt.Errorf("%w: hero image: %v", ErrInvalidSettings, err)
	}
	images := []string{}
	if image != nil && *image != "" {
		images = append(images, *image)
	}
	b, err := json.Marshal(images)
	if err != nil {
		return err
	}
	fields["images"] = b
	return nil
}

// Parse strictly decodes a current-version settings payload for key.
// Unknown fields are rejected; absent fields take their defaults.
func Parse(key string, raw []byte) (Settings, error) {
	s, err := Defaults(key)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s, nil
}

// slotKeys maps each section slot to the one section that holds it.
var slotKeys = map[string]string{
	media.SectionLogo.Name:   KeyHeader,
	media.SectionImages.Name: KeyHero,
	media.SectionImage.Name:  KeyAbout,
}

func checkSlot(key, slot string) error {
	if !ValidKey(key) {
		return ErrNotFound
	}
	if want, ok := slotKeys[slot]; !ok || want != key {
		return fmt.Errorf("%w: section %s has no %s slot", media.ErrUnknownSlot, key, slot)
	}
	return nil
}

func singleField(s Settings, slot string) (*string, bool) {
	switch v := s.(type) {
	case *Header:
		if slot == media.SectionLogo.Name {
			return &v.LogoPath, true
		}
	case *About:
		if slot == media.SectionImage.Name {
			return &v.ImagePath, true
		}
	}
	return nil, false
}

func listField(s Settings, slot string) (*[]string, bool) {
	if v, ok := s.(*Hero); ok && slot == media.SectionImages.Name {
		return &v.Images, true
	}
	return nil, false
}
