package media

import "fmt"

// Kind identifies the type of row that owns media.
type Kind string

const (
	KindRestaurant Kind = "restaurant"
	KindEvent      Kind = "event"
	KindSection    Kind = "section"
)

// Slot is a path-valued field on a content row. Max is zero for
// single-file slots and the list capacity for multi-file slots.
type Slot struct {
	Kind Kind
	Name string
	Max  int
}

// Multi reports whether the slot holds a bounded list of paths.
func (s Slot) Multi() bool { return s.Max > 0 }

func (s Slot) String() string { return fmt.Sprintf("%s/%s", s.Kind, s.Name) }

const (
	GalleryMax    = 25
	HeroImagesMax = 10
)

var (
	RestaurantLogo    = Slot{Kind: KindRestaurant, Name: "logo"}
	RestaurantCover   = Slot{Kind: KindRestaurant, Name: "cover"}
	RestaurantGallery = Slot{Kind: KindRestaurant, Name: "gallery", Max: GalleryMax}

	EventCover   = Slot{Kind: KindEvent, Name: "cover"}
	EventGallery = Slot{Kind: KindEvent, Name: "gallery", Max: GalleryMax}

	// Section slots are addressed with the section key as owner id.
	SectionLogo   = Slot{Kind: KindSection, Name: "logo"}
	SectionImages = Slot{Kind: KindSection, Name: "images", Max: HeroImagesMax}
	SectionImage  = Slot{Kind: KindSection, Name: "image"}
)

var slots = []Slot{
	RestaurantLogo, RestaurantCover, RestaurantGallery,
	EventCover, EventGallery,
	SectionLogo, SectionImages, SectionImage,
}

// LookupSlot resolves a slot by kind and name.
func LookupSlot(kind, name string) (Slot, error) {
	for _, s := range slots {
		if string(s.Kind) == kind && s.Name == name {
			return s, nil
		}
	}
	return Slot{}, fmt.Errorf("%w: %s/%s", ErrUnknownSlot, kind, name)
}
