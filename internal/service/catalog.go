package service

import (
	"context"
	"fmt"
	"log/slog"

	"giftaihub/internal/dto"
	"giftaihub/internal/model"
	"giftaihub/internal/repository"
)

type CatalogService interface {
	ListPlatforms(ctx context.Context) ([]dto.PlatformResponse, error)
	Seed(ctx context.Context, platforms []model.Platform) error
}

type catalogServiceImpl struct {
	catalogRepo repository.CatalogRepository
	logger      *slog.Logger
}

func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	logger *slog.Logger,
) CatalogService {
	return &catalogServiceImpl{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

func (s *catalogServiceImpl) ListPlatforms(ctx context.Context) ([]dto.PlatformResponse, error) {
	platforms, err := s.catalogRepo.ListPlatforms(ctx)
	if err != nil {
		return nil, upstream("list platforms", err)
	}

	out := make([]dto.PlatformResponse, 0, len(platforms))
	for _, p := range platforms {
		subs := make([]dto.SubscriptionResponse, 0, len(p.Subscriptions))
		for _, sub := range p.Subscriptions {
			subs = append(subs, dto.SubscriptionResponse{
				ID:      sub.ID,
				Period:  sub.Period,
				Tier:    sub.Tier,
				Price:   sub.Price.StringFixed(2),
				Popular: sub.Popular,
			})
		}
		out = append(out, dto.PlatformResponse{
			ID:            p.ID,
			Name:          p.Name,
			Company:       p.Company,
			Category:      p.Category,
			Description:   p.Description,
			Subscriptions: subs,
		})
	}

	return out, nil
}

func (s *catalogServiceImpl) Seed(ctx context.Context, platforms []model.Platform) error {
	if len(platforms) == 0 {
		return fmt.Errorf("%w: empty catalog", ErrInvalidInput)
	}
	if err := s.catalogRepo.Seed(ctx, platforms); err != nil {
		return upstream("seed catalog", err)
	}

	s.logger.InfoContext(ctx, "catalog seeded", "platforms", len(platforms))
	return nil
}
