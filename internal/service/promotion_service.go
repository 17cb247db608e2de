package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"sushikoi/internal/domain"
	"sushikoi/internal/repository"
)

var ErrInvalidInput = errors.New("invalid input")

// PromotionService инкапсулирует бизнес-логику вокруг промо-наборов
type PromotionService struct {
	col *repository.Collections
	now func() time.Time

	mu     sync.Mutex
	promos []domain.Promotion
}

func NewPromotionService(col *repository.Collections, now func() time.Time) *PromotionService {
	if now == nil {
		now = time.Now
	}
	return &PromotionService{col: col, now: now}
}

// Load читает промо из хранилища
func (s *PromotionService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos = s.col.LoadPromotions(ctx)
}

func validatePromotion(p *domain.Promotion) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" || p.OriginalPrice < 0 || p.DiscountPrice < 0 {
		return ErrInvalidInput
	}
	if p.DiscountPrice > 0 && p.OriginalPrice > 0 && p.DiscountPrice > p.OriginalPrice {
		return ErrInvalidInput
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return ErrInvalidInput
	}
	if p.ValidFrom != nil && p.ValidTo != nil && p.ValidTo.Before(*p.ValidFrom) {
		return ErrInvalidInput
	}
	if p.DiscountPercent == 0 && p.DiscountPrice > 0 && p.OriginalPrice > 0 {
		p.DiscountPercent = int((p.OriginalPrice - p.DiscountPrice) * 100 / p.OriginalPrice)
	}
	return nil
}

func (s *PromotionService) Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error) {
	if err := validatePromotion(&p); err != nil {
		return nil, err
	}
	p.ID = domain.NewID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos = append(s.promos, p)
	if err := s.col.SavePromotions(ctx, s.promos); err != nil {
		s.promos = s.promos[:len(s.promos)-1]
		return nil, err
	}
	cp := p
	return &cp, nil
}

func (s *PromotionService) GetByID(_ context.Context, id string) (*domain.Promotion, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.promos {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *PromotionService) Update(ctx context.Context, p domain.Promotion) (*domain.Promotion, error) {
	if p.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := validatePromotion(&p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.promos {
		if s.promos[i].ID != p.ID {
			continue
		}
		prev := s.promos[i]
		s.promos[i] = p
		if err := s.col.SavePromotions(ctx, s.promos); err != nil {
			s.promos[i] = prev
			return nil, err
		}
		cp := p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *PromotionService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.promos {
		if s.promos[i].ID != id {
			continue
		}
		next := append(append([]domain.Promotion{}, s.promos[:i]...), s.promos[i+1:]...)
		if err := s.col.SavePromotions(ctx, next); err != nil {
			return err
		}
		s.promos = next
		return nil
	}
	return repository.ErrNotFound
}

// List возвращает промо; activeOnly оставляет доступные сейчас, популярные первыми
func (s *PromotionService) List(_ context.Context, activeOnly bool) []domain.Promotion {
	s.mu.Lock()
	now := s.now()
	out := make([]domain.Promotion, 0, len(s.promos))
	for _, p := range s.promos {
		if activeOnly && !p.AvailableAt(now) {
			continue
		}
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popular && !out[j].Popular
	})
	return out
}
