package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/platform/storage"
	"github.com/NishanKutu/ghumfir-api/internal/repo/postgres"
	"github.com/NishanKutu/ghumfir-api/pkg/events"
	"github.com/NishanKutu/ghumfir-api/pkg/logger"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID int64, in *domain.ReviewInput, images []*multipart.FileHeader) (*domain.Review, error)
	ListByDestination(ctx context.Context, destinationID int64, limit, offset int) ([]domain.Review, error)
	UpdateReview(ctx context.Context, userID int64, role domain.Role, id int64, patch *domain.ReviewPatch) (*domain.Review, error)
	DeleteReview(ctx context.Context, userID int64, role domain.Role, id int64) error
}

type reviewService struct {
	repo            postgres.ReviewRepo
	destinationRepo postgres.DestinationRepo
	uploads         *storage.UploadStore
	eventBus        events.Publisher
}

func NewReviewService(
	repo postgres.ReviewRepo,
	destinationRepo postgres.DestinationRepo,
	uploads *storage.UploadStore,
	eventBus events.Publisher,
) ReviewService {
	return &reviewService{
		repo:            repo,
		destinationRepo: destinationRepo,
		uploads:         uploads,
		eventBus:        eventBus,
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID int64, in *domain.ReviewInput, images []*multipart.FileHeader) (*domain.Review, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	destination, err := s.destinationRepo.GetByID(ctx, in.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination: %w", err)
	}
	if destination == nil {
		return nil, fmt.Errorf("destination not found")
	}

	var saved []string
	for _, fh := range images {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		name, err := s.uploads.Save(f, fh.Filename)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to store image %q: %w", fh.Filename, err)
		}
		saved = append(saved, name)
	}

	review, err := s.repo.Create(ctx, userID, in, saved)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	event := events.ReviewCreatedEvent{
		ReviewID:      review.ID,
		DestinationID: review.DestinationID,
		UserID:        review.UserID,
		Rating:        review.Rating,
		CreatedAt:     review.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.ReviewCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish review created event", "error", err, "review_id", review.ID)
	}

	return review, nil
}

func (s *reviewService) ListByDestination(ctx context.Context, destinationID int64, limit, offset int) ([]domain.Review, error) {
	reviews, err := s.repo.ListByDestination(ctx, destinationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, userID int64, role domain.Role, id int64, patch *domain.ReviewPatch) (*domain.Review, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("review not found")
	}
	if !review.CanModify(userID, role) {
		return nil, fmt.Errorf("review does not belong to you")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return updated, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, userID int64, role domain.Role, id int64) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return fmt.Errorf("review not found")
	}
	if !review.CanModify(userID, role) {
		return fmt.Errorf("review does not belong to you")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	for _, name := range review.Images {
		if err := s.uploads.Remove(name); err != nil {
			logger.ErrorContext(ctx, "Failed to delete review image", "error", err, "file", name)
		}
	}
	return nil
}
