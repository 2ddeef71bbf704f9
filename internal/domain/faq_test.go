package domain

import "testing"

func TestGroupFAQs(t *testing.T) {
	faqs := []FAQ{
		{ID: 1, Question: "q1", Section: FAQSectionBooking, Category: "changes", DisplayOrder: 2},
		{ID: 2, Question: "q2", Section: FAQSectionGeneral, Category: "visas", DisplayOrder: 1},
		{ID: 3, Question: "q3", Section: FAQSectionBooking, Category: "changes", DisplayOrder: 1},
		{ID: 4, Question: "q4", Section: FAQSectionBooking, Category: "deposits", DisplayOrder: 3},
	}

	groups := GroupFAQs(faqs)

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Section != FAQSectionGeneral {
		t.Errorf("first group = %s, want general", groups[0].Section)
	}
	if groups[1].Section != FAQSectionBooking {
		t.Errorf("second group = %s, want booking", groups[1].Section)
	}

	booking := groups[1]
	if len(booking.Categories) != 2 {
		t.Fatalf("booking section has %d categories, want 2", len(booking.Categories))
	}
	changes := booking.Categories[0]
	if changes.Category != "changes" {
		t.Errorf("first category = %q, want changes", changes.Category)
	}
	if changes.Entries[0].ID != 3 || changes.Entries[1].ID != 1 {
		t.Errorf("changes entries not ordered by display_order: %+v", changes.Entries)
	}
}

func TestGroupFAQsEmpty(t *testing.T) {
	if groups := GroupFAQs(nil); len(groups) != 0 {
		t.Errorf("got %d groups for no entries, want 0", len(groups))
	}
}

func TestParseFAQSection(t *testing.T) {
	if _, ok := ParseFAQSection("booking"); !ok {
		t.Error("booking should be a valid section")
	}
	if _, ok := ParseFAQSection("misc"); ok {
		t.Error("misc should not be a valid section")
	}
}
