package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/platform/storage"
	"github.com/NishanKutu/ghumfir-api/internal/repo/postgres"
	"github.com/NishanKutu/ghumfir-api/pkg/logger"
)

type DestinationService interface {
	CreateDestination(ctx context.Context, in *domain.DestinationInput, images []*multipart.FileHeader) (*domain.Destination, error)
	GetDestination(ctx context.Context, id int64) (*domain.Destination, error)
	ListDestinations(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Destination, error)
	// UpdateDestination replaces the destination fields and appends any
	// newly uploaded images to the existing list.
	UpdateDestination(ctx context.Context, id int64, in *domain.DestinationInput, images []*multipart.FileHeader) (*domain.Destination, error)
	// RemoveImage detaches one image from the destination and deletes
	// the file from disk.
	RemoveImage(ctx context.Context, id int64, filename string) error
	DeleteDestination(ctx context.Context, id int64) error
}

type destinationService struct {
	repo    postgres.DestinationRepo
	uploads *storage.UploadStore
}

func NewDestinationService(repo postgres.DestinationRepo, uploads *storage.UploadStore) DestinationService {
	return &destinationService{repo: repo, uploads: uploads}
}

// saveImages stores the uploaded files and returns their generated
// filenames. On any failure the files already written are removed so a
// rejected request leaves nothing behind.
func (s *destinationService) saveImages(existing int, files []*multipart.FileHeader) ([]string, error) {
	if existing+len(files) > domain.MaxDestinationImages {
		return nil, fmt.Errorf("a destination can have at most %d images", domain.MaxDestinationImages)
	}

	var saved []string
	cleanup := func() {
		for _, name := range saved {
			if err := s.uploads.Remove(name); err != nil {
				logger.Error("Failed to clean up uploaded image", "error", err, "file", name)
			}
		}
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		name, err := s.uploads.Save(f, fh.Filename)
		closeErr := f.Close()
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to store image %q: %w", fh.Filename, err)
		}
		if closeErr != nil {
			logger.Error("Failed to close uploaded file", "error", closeErr, "file", fh.Filename)
		}
		saved = append(saved, name)
	}
	return saved, nil
}

func (s *destinationService) CreateDestination(ctx context.Context, in *domain.DestinationInput, images []*multipart.FileHeader) (*domain.Destination, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	saved, err := s.saveImages(0, images)
	if err != nil {
		return nil, err
	}

	destination, err := s.repo.Create(ctx, in, saved)
	if err != nil {
		for _, name := range saved {
			if rmErr := s.uploads.Remove(name); rmErr != nil {
				logger.ErrorContext(ctx, "Failed to clean up uploaded image", "error", rmErr, "file", name)
			}
		}
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}
	return destination, nil
}

func (s *destinationService) GetDestination(ctx context.Context, id int64) (*domain.Destination, error) {
	destination, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}
	return destination, nil
}

func (s *destinationService) ListDestinations(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Destination, error) {
	destinations, err := s.repo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}
	return destinations, nil
}

func (s *destinationService) UpdateDestination(ctx context.Context, id int64, in *domain.DestinationInput, images []*multipart.FileHeader) (*domain.Destination, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("destination not found")
	}

	saved, err := s.saveImages(len(current.Images), images)
	if err != nil {
		return nil, err
	}

	destination, err := s.repo.Update(ctx, id, in, saved)
	if err != nil {
		for _, name := range saved {
			if rmErr := s.uploads.Remove(name); rmErr != nil {
				logger.ErrorContext(ctx, "Failed to clean up uploaded image", "error", rmErr, "file", name)
			}
		}
		return nil, fmt.Errorf("failed to update destination: %w", err)
	}
	if destination == nil {
		return nil, fmt.Errorf("destination not found")
	}
	return destination, nil
}

func (s *destinationService) RemoveImage(ctx context.Context, id int64, filename string) error {
	removed, err := s.repo.RemoveImage(ctx, id, filename)
	if err != nil {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	if !removed {
		return fmt.Errorf("image not found on destination")
	}

	if err := s.uploads.Remove(filename); err != nil {
		// The database no longer references the file; log and move on.
		logger.ErrorContext(ctx, "Failed to delete image file", "error", err, "file", filename)
	}
	return nil
}

func (s *destinationService) DeleteDestination(ctx context.Context, id int64) error {
	destination, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get destination: %w", err)
	}
	if destination == nil {
		return fmt.Errorf("destination not found")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete destination: %w", err)
	}

	for _, name := range destination.Images {
		if err := s.uploads.Remove(name); err != nil {
			logger.ErrorContext(ctx, "Failed to delete image file", "error", err, "file", name)
		}
	}
	return nil
}
