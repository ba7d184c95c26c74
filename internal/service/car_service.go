package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/repository"
)

type CarService interface {
	Create(ctx context.Context, req *domain.CarRequest) (*domain.Car, error)
	Get(ctx context.Context, id int64) (*domain.Car, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Car, error)
	Update(ctx context.Context, id int64, req *domain.CarRequest) (*domain.Car, error)
	Delete(ctx context.Context, id int64) error
}

type carService struct {
	carRepo repository.CarRepository
}

func NewCarService(carRepo repository.CarRepository) CarService {
	return &carService{carRepo: carRepo}
}

func (s *carService) Create(ctx context.Context, req *domain.CarRequest) (*domain.Car, error) {
	if err := req.ValidateForCreate(); err != nil {
		return nil, err
	}
	car, err := s.carRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}
	return car, nil
}

func (s *carService) Get(ctx context.Context, id int64) (*domain.Car, error) {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load car: %w", err)
	}
	if car == nil {
		return nil, domain.ErrNotFound
	}
	return car, nil
}

func (s *carService) List(ctx context.Context, activeOnly bool) ([]domain.Car, error) {
	cars, err := s.carRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	return cars, nil
}

func (s *carService) Update(ctx context.Context, id int64, req *domain.CarRequest) (*domain.Car, error) {
	car, err := s.carRepo.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update car: %w", err)
	}
	if car == nil {
		return nil, domain.ErrNotFound
	}
	return car, nil
}

func (s *carService) Delete(ctx context.Context, id int64) error {
	if err := s.carRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete car: %w", err)
	}
	return nil
}
