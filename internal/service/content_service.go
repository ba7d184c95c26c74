package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/repository"
)

type ContentService interface {
	Create(ctx context.Context, actor *domain.User, req *domain.ContentBlockRequest) (*domain.ContentBlock, error)
	Get(ctx context.Context, id int64) (*domain.ContentBlock, error)
	List(ctx context.Context, keyFilter string) ([]domain.ContentBlock, error)
	Update(ctx context.Context, actor *domain.User, id int64, req *domain.ContentBlockRequest) (*domain.ContentBlock, error)
	PublicContent(ctx context.Context, keyFilter string) (map[string]domain.PublicContent, error)
}

type contentService struct {
	contentRepo repository.ContentRepository
}

func NewContentService(contentRepo repository.ContentRepository) ContentService {
	return &contentService{contentRepo: contentRepo}
}

func (s *contentService) Create(ctx context.Context, actor *domain.User, req *domain.ContentBlockRequest) (*domain.ContentBlock, error) {
	if err := req.ValidateForCreate(); err != nil {
		return nil, err
	}
	block, err := s.contentRepo.Create(ctx, req, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrKeyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create content block: %w", err)
	}
	return block, nil
}

func (s *contentService) Get(ctx context.Context, id int64) (*domain.ContentBlock, error) {
	block, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load content block: %w", err)
	}
	if block == nil {
		return nil, domain.ErrNotFound
	}
	return block, nil
}

func (s *contentService) List(ctx context.Context, keyFilter string) ([]domain.ContentBlock, error) {
	blocks, err := s.contentRepo.List(ctx, keyFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list content blocks: %w", err)
	}
	return blocks, nil
}

func (s *contentService) Update(ctx context.Context, actor *domain.User, id int64, req *domain.ContentBlockRequest) (*domain.ContentBlock, error) {
	block, err := s.contentRepo.Update(ctx, id, req, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update content block: %w", err)
	}
	if block == nil {
		return nil, domain.ErrNotFound
	}
	return block, nil
}

// PublicContent serves the trimmed, key-addressed map the public site renders
// from. No auth, no editor metadata.
func (s *contentService) PublicContent(ctx context.Context, keyFilter string) (map[string]domain.PublicContent, error) {
	blocks, err := s.contentRepo.List(ctx, keyFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list content blocks: %w", err)
	}

	out := make(map[string]domain.PublicContent, len(blocks))
	for _, b := range blocks {
		out[b.Key] = domain.PublicContent{
			Title:    b.Title,
			Content:  b.Content,
			MediaURL: b.MediaURL,
		}
	}
	return out, nil
}
