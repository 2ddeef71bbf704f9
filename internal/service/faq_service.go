package service

import (
	"context"
	"fmt"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/repo/postgres"
)

type FAQService interface {
	CreateFAQ(ctx context.Context, in *domain.FAQInput) (*domain.FAQ, error)
	// ListGrouped returns all entries arranged section -> category for
	// the public help page.
	ListGrouped(ctx context.Context) ([]domain.FAQGroup, error)
	ListAll(ctx context.Context) ([]domain.FAQ, error)
	UpdateFAQ(ctx context.Context, id int64, in *domain.FAQInput) (*domain.FAQ, error)
	DeleteFAQ(ctx context.Context, id int64) error
}

type faqService struct {
	repo postgres.FAQRepo
}

func NewFAQService(repo postgres.FAQRepo) FAQService {
	return &faqService{repo: repo}
}

func (s *faqService) CreateFAQ(ctx context.Context, in *domain.FAQInput) (*domain.FAQ, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	faq, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create faq: %w", err)
	}
	return faq, nil
}

func (s *faqService) ListGrouped(ctx context.Context) ([]domain.FAQGroup, error) {
	faqs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	return domain.GroupFAQs(faqs), nil
}

func (s *faqService) ListAll(ctx context.Context) ([]domain.FAQ, error) {
	faqs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	return faqs, nil
}

func (s *faqService) UpdateFAQ(ctx context.Context, id int64, in *domain.FAQInput) (*domain.FAQ, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	faq, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update faq: %w", err)
	}
	if faq == nil {
		return nil, fmt.Errorf("faq not found")
	}
	return faq, nil
}

func (s *faqService) DeleteFAQ(ctx context.Context, id int64) error {
	faq, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get faq: %w", err)
	}
	if faq == nil {
		return fmt.Errorf("faq not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete faq: %w", err)
	}
	return nil
}
