package domain

import (
	"fmt"
	"strings"
	"time"
)

type Destination struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Price       float64        `json:"price"`
	Discount    float64        `json:"discount"`
	Duration    int            `json:"duration"` // days
	GroupSize   int            `json:"group_size"`
	IsActive    bool           `json:"is_active"`
	Seasons     []string       `json:"seasons"`
	Featured    bool           `json:"featured"`
	OnSale      bool           `json:"on_sale"`
	Itinerary   []ItineraryDay `json:"itinerary"`
	Inclusions  []string       `json:"inclusions"`
	Exclusions  []string       `json:"exclusions"`
	Images      []string       `json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ItineraryDay struct {
	Day         int    `json:"day"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MaxDestinationImages caps the number of files accepted per
// create/update request.
const MaxDestinationImages = 5

var validSeasons = map[string]bool{
	"spring": true,
	"summer": true,
	"autumn": true,
	"winter": true,
}

type DestinationInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Price       float64        `json:"price"`
	Discount    float64        `json:"discount"`
	Duration    int            `json:"duration"`
	GroupSize   int            `json:"group_size"`
	IsActive    bool           `json:"is_active"`
	Seasons     []string       `json:"seasons"`
	Featured    bool           `json:"featured"`
	OnSale      bool           `json:"on_sale"`
	Itinerary   []ItineraryDay `json:"itinerary"`
	Inclusions  []string       `json:"inclusions"`
	Exclusions  []string       `json:"exclusions"`
}

func (in *DestinationInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	for i, s := range in.Seasons {
		in.Seasons[i] = strings.ToLower(strings.TrimSpace(s))
	}
}

func (in *DestinationInput) Validate() error {
	if in.Title == "" {
		return fmt.Errorf("title is required")
	}
	if in.Location == "" {
		return fmt.Errorf("location is required")
	}
	if in.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if in.Discount < 0 || in.Discount > in.Price {
		return fmt.Errorf("discount must be between 0 and price")
	}
	if in.Duration <= 0 {
		return fmt.Errorf("duration must be at least 1 day")
	}
	if in.GroupSize <= 0 {
		return fmt.Errorf("group size must be at least 1")
	}
	for _, s := range in.Seasons {
		if !validSeasons[s] {
			return fmt.Errorf("invalid season: %s", s)
		}
	}
	for _, d := range in.Itinerary {
		if d.Day <= 0 {
			return fmt.Errorf("itinerary day numbers must be positive")
		}
		if d.Title == "" {
			return fmt.Errorf("itinerary day %d is missing a title", d.Day)
		}
	}
	return nil
}
