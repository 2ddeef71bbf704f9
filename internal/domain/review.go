package domain

import (
	"fmt"
	"strings"
	"time"
)

type Review struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	DestinationID int64     `json:"destination_id"`
	GuideID       *int64    `json:"guide_id,omitempty"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	Images        []string  `json:"images"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ReviewInput struct {
	DestinationID int64  `json:"destinationId"`
	GuideID       *int64 `json:"guideId,omitempty"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

func (in *ReviewInput) Normalize() {
	in.Comment = strings.TrimSpace(in.Comment)
}

func (in *ReviewInput) Validate() error {
	if in.DestinationID <= 0 {
		return fmt.Errorf("destinationId is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

type ReviewPatch struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

func (p *ReviewPatch) Validate() error {
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// CanModify reports whether the given account may edit or delete this
// review: the author, or any admin.
func (r *Review) CanModify(userID int64, role Role) bool {
	return r.UserID == userID || role == RoleAdmin
}
