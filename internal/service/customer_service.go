package service

import (
	"context"
	"strings"
	"sync"

	"sushikoi/internal/domain"
	"sushikoi/internal/repository"
)

// CustomerService справочник клиентов кассы
type CustomerService struct {
	col *repository.Collections

	mu        sync.Mutex
	customers []domain.Customer
}

func NewCustomerService(col *repository.Collections) *CustomerService {
	return &CustomerService{col: col}
}

func (s *CustomerService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = s.col.LoadCustomers(ctx)
}

func validateCustomer(c *domain.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return ErrInvalidInput
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return ErrInvalidInput
	}
	return nil
}

func (s *CustomerService) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if err := validateCustomer(&c); err != nil {
		return nil, err
	}
	c.ID = domain.NewID()

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append([]domain.Customer{}, s.customers...), c)
	if err := s.col.SaveCustomers(ctx, next); err != nil {
		return nil, err
	}
	s.customers = next
	cp := c
	return &cp, nil
}

func (s *CustomerService) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *CustomerService) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if c.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := validateCustomer(&c); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID != c.ID {
			continue
		}
		next := append([]domain.Customer{}, s.customers...)
		next[i] = c
		if err := s.col.SaveCustomers(ctx, next); err != nil {
			return nil, err
		}
		s.customers = next
		cp := c
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID != id {
			continue
		}
		next := append(append([]domain.Customer{}, s.customers[:i]...), s.customers[i+1:]...)
		if err := s.col.SaveCustomers(ctx, next); err != nil {
			return err
		}
		s.customers = next
		return nil
	}
	return repository.ErrNotFound
}

// List клиенты; query фильтрует по имени или телефону
func (s *CustomerService) List(_ context.Context, query string) []domain.Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	qd := digits(query)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) &&
			(qd == "" || !strings.Contains(digits(c.Phone), qd)) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FindByPhone ищет клиента по цифрам телефона, формат не важен
func (s *CustomerService) FindByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	want := digits(phone)
	if want == "" {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if digits(c.Phone) == want {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}
