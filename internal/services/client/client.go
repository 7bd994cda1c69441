// Package client содержит бизнес-логику работы с карточками клиентов:
// валидацию входных данных, кеширование и упорядочивание списка.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/magabrotheeeer/controtec/internal/cache"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// ErrValidation возвращается, если входные данные не прошли проверку.
// Ошибка оборачивает validator.ValidationErrors с подробностями по полям.
var ErrValidation = errors.New("validation failed")

// Repository определяет методы для работы с клиентами в хранилище.
type Repository interface {
	// CreateClient добавляет клиента и возвращает его ID.
	CreateClient(ctx context.Context, c models.Client) (int64, error)
	// ReadClient возвращает клиента по ID.
	ReadClient(ctx context.Context, id int64) (*models.Client, error)
	// UpdateClient перезаписывает поля клиента по ID.
	UpdateClient(ctx context.Context, id int64, c models.Client) error
	// RemoveClient удаляет клиента и возвращает количество удалённых записей.
	RemoveClient(ctx context.Context, id int64) (int, error)
	// ListClients возвращает всех клиентов.
	ListClients(ctx context.Context) ([]*models.Client, error)
}

// Cache описывает методы для кеширования карточек.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует CRUD над клиентами.
type Service struct {
	repo     Repository
	cache    Cache
	log      *slog.Logger
	ttl      time.Duration
	validate *validator.Validate

	mu       sync.Mutex
	collator *collate.Collator
}

// NewService создаёт сервис. Кеш может быть cache.Nop.
func NewService(repo Repository, c Cache, log *slog.Logger, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		repo:     repo,
		cache:    c,
		log:      log,
		ttl:      ttl,
		validate: NewValidator(),
		collator: collate.New(language.BrazilianPortuguese, collate.IgnoreCase),
	}
}

// NewValidator возвращает валидатор с правилом "category" для DummyClient.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.ValidCategoryText(fl.Field().String())
	})
	return v
}

func (s *Service) check(req models.DummyClient) error {
	if err := s.validate.Struct(req.Trim()); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrValidation, verrs)
		}
		return err
	}
	return nil
}

// Create проверяет данные, сохраняет клиента и возвращает его ID.
func (s *Service) Create(ctx context.Context, req models.DummyClient) (int64, error) {
	const op = "services.client.Create"
	if err := s.check(req); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	c := req.Normalize()

	id, err := s.repo.CreateClient(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	c.ID = id
	s.log.Info("created new client", slog.Int64("id", id), sl.Phone(c.Phone))

	s.store(ctx, &c)
	return id, nil
}

// Read возвращает клиента по ID, сначала заглядывая в кеш.
func (s *Service) Read(ctx context.Context, id int64) (*models.Client, error) {
	const op = "services.client.Read"
	key := cache.ClientKey(id)

	var cached models.Client
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	c, err := s.repo.ReadClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.store(ctx, c)
	return c, nil
}

// Update проверяет данные и перезаписывает клиента.
func (s *Service) Update(ctx context.Context, id int64, req models.DummyClient) (*models.Client, error) {
	const op = "services.client.Update"
	if err := s.check(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c := req.Normalize()

	if err := s.repo.UpdateClient(ctx, id, c); err != nil {
		s.invalidate(ctx, id)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.ID = id
	s.log.Info("updated client", slog.Int64("id", id))

	s.store(ctx, &c)
	return &c, nil
}

// Remove удаляет клиента. Неизвестный ID возвращает storage.ErrClientNotFound,
// хранилище при этом не меняется.
func (s *Service) Remove(ctx context.Context, id int64) error {
	const op = "services.client.Remove"
	if _, err := s.repo.ReadClient(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, id)
	if _, err := s.repo.RemoveClient(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("removed client", slog.Int64("id", id))
	return nil
}

// List возвращает всех клиентов по алфавиту (pt-BR, без учёта регистра).
// Одинаковые имена упорядочиваются по ID.
func (s *Service) List(ctx context.Context) ([]*models.Client, error) {
	const op = "services.client.List"
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Collator не потокобезопасен.
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(clients, func(i, j int) bool {
		if r := s.collator.CompareString(clients[i].Name, clients[j].Name); r != 0 {
			return r < 0
		}
		return clients[i].ID < clients[j].ID
	})
	return clients, nil
}

func (s *Service) store(ctx context.Context, c *models.Client) {
	key := cache.ClientKey(c.ID)
	if err := s.cache.Set(ctx, key, c, s.ttl); err != nil {
		s.log.Warn("failed to cache client", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	key := cache.ClientKey(id)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}
