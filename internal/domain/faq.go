package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FAQ sections are a fixed set; categories within a section are free text.
type FAQSection string

const (
	FAQSectionGeneral FAQSection = "general"
	FAQSectionBooking FAQSection = "booking"
	FAQSectionPayment FAQSection = "payment"
)

func ParseFAQSection(s string) (FAQSection, bool) {
	switch FAQSection(s) {
	case FAQSectionGeneral, FAQSectionBooking, FAQSectionPayment:
		return FAQSection(s), true
	default:
		return "", false
	}
}

type FAQ struct {
	ID           int64      `json:"id"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	Category     string     `json:"category"`
	Section      FAQSection `json:"section"`
	DisplayOrder int        `json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type FAQInput struct {
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Category     string `json:"category"`
	Section      string `json:"section"`
	DisplayOrder int    `json:"display_order"`
}

func (in *FAQInput) Normalize() {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	in.Category = strings.TrimSpace(in.Category)
	in.Section = strings.ToLower(strings.TrimSpace(in.Section))
}

func (in *FAQInput) Validate() error {
	if in.Question == "" {
		return fmt.Errorf("question is required")
	}
	if in.Answer == "" {
		return fmt.Errorf("answer is required")
	}
	if in.Category == "" {
		return fmt.Errorf("category is required")
	}
	if _, ok := ParseFAQSection(in.Section); !ok {
		return fmt.Errorf("section must be one of: general, booking, payment")
	}
	return nil
}

type FAQCategory struct {
	Category string `json:"category"`
	Entries  []FAQ  `json:"entries"`
}

type FAQGroup struct {
	Section    FAQSection    `json:"section"`
	Categories []FAQCategory `json:"categories"`
}

// GroupFAQs arranges entries into section -> category -> entries for
// presentation. The grouping is purely a read-side transformation;
// entries within a category keep display_order, categories appear in
// the order their first entry does, sections in their fixed order.
func GroupFAQs(faqs []FAQ) []FAQGroup {
	sections := []FAQSection{FAQSectionGeneral, FAQSectionBooking, FAQSectionPayment}

	sorted := make([]FAQ, len(faqs))
	copy(sorted, faqs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DisplayOrder < sorted[j].DisplayOrder
	})

	var groups []FAQGroup
	for _, section := range sections {
		var cats []FAQCategory
		index := map[string]int{}
		for _, f := range sorted {
			if f.Section != section {
				continue
			}
			i, ok := index[f.Category]
			if !ok {
				i = len(cats)
				index[f.Category] = i
				cats = append(cats, FAQCategory{Category: f.Category})
			}
			cats[i].Entries = append(cats[i].Entries, f)
		}
		if len(cats) > 0 {
			groups = append(groups, FAQGroup{Section: section, Categories: cats})
		}
	}
	return groups
}
