package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/controtec/internal/models"
	"github.com/magabrotheeeer/controtec/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateClient(ctx context.Context, c models.Client) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) ReadClient(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) UpdateClient(ctx context.Context, id int64, c models.Client) error {
	return m.Called(ctx, id, c).Error(0)
}

func (m *RepoMock) RemoveClient(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListClients(ctx context.Context) ([]*models.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	req := models.DummyClient{
		Name:           " Ana ",
		Phone:          "+551199999999",
		Product:        "Plano X",
		ExpirationDate: "2024-12-28",
		Category:       "expiration",
	}
	want := models.Client{
		Name:           "Ana",
		Phone:          "+551199999999",
		Product:        "Plano X",
		ExpirationDate: "2024-12-28",
		Category:       models.CategoryExpiration,
	}

	t.Run("успешное создание", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("CreateClient", ctx, want).Return(int64(1), nil)
		cache.On("Set", ctx, "client:1", mock.Anything, time.Hour).Return(nil)

		svc := NewService(repo, cache, newNoopLogger(), time.Hour)
		id, err := svc.Create(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("ошибка кеша не мешает созданию", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("CreateClient", ctx, want).Return(int64(2), nil)
		cache.On("Set", ctx, "client:2", mock.Anything, time.Hour).Return(errors.New("redis down"))

		svc := NewService(repo, cache, newNoopLogger(), time.Hour)
		id, err := svc.Create(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
	})

	t.Run("дубликат телефона", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("CreateClient", ctx, want).Return(int64(0), storage.ErrPhoneExists)

		svc := NewService(repo, new(CacheMock), newNoopLogger(), time.Hour)
		_, err := svc.Create(ctx, req)

		require.ErrorIs(t, err, storage.ErrPhoneExists)
	})
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   models.DummyClient
		field string
	}{
		{"пустое имя", models.DummyClient{Phone: "123"}, "Name"},
		{"имя из пробелов", models.DummyClient{Name: "   ", Phone: "123"}, "Name"},
		{"пустой телефон", models.DummyClient{Name: "Ana"}, "Phone"},
		{"неизвестная категория", models.DummyClient{Name: "Ana", Phone: "123", Category: "sms"}, "Category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := NewService(repo, nil, newNoopLogger(), time.Hour)

			_, err := svc.Create(context.Background(), tt.req)

			require.ErrorIs(t, err, ErrValidation)
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field())
			repo.AssertNotCalled(t, "CreateClient", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Read(t *testing.T) {
	ctx := context.Background()
	stored := &models.Client{ID: 7, Name: "Ana", Phone: "123", Category: models.CategoryOffer}

	t.Run("из кеша", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", ctx, "client:7", mock.Anything).Run(func(args mock.Arguments) {
			*args.Get(2).(*models.Client) = *stored
		}).Return(true, nil)

		svc := NewService(repo, cache, newNoopLogger(), time.Hour)
		got, err := svc.Read(ctx, 7)

		require.NoError(t, err)
		assert.Equal(t, stored, got)
		repo.AssertNotCalled(t, "ReadClient", mock.Anything, mock.Anything)
	})

	t.Run("промах кеша", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", ctx, "client:7", mock.Anything).Return(false, nil)
		repo.On("ReadClient", ctx, int64(7)).Return(stored, nil)
		cache.On("Set", ctx, "client:7", stored, time.Minute).Return(nil)

		svc := NewService(repo, cache, newNoopLogger(), time.Minute)
		got, err := svc.Read(ctx, 7)

		require.NoError(t, err)
		assert.Equal(t, stored, got)
		cache.AssertExpectations(t)
	})

	t.Run("не найден", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadClient", ctx, int64(9)).Return(nil, storage.ErrClientNotFound)

		svc := NewService(repo, nil, newNoopLogger(), time.Hour)
		_, err := svc.Read(ctx, 9)

		require.ErrorIs(t, err, storage.ErrClientNotFound)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	req := models.DummyClient{Name: "Bia", Phone: "456", Category: "oferta"}
	want := models.Client{Name: "Bia", Phone: "456", Category: models.CategoryOffer}

	t.Run("успешное обновление", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("UpdateClient", ctx, int64(3), want).Return(nil)
		cache.On("Set", ctx, "client:3", mock.Anything, time.Hour).Return(nil)

		svc := NewService(repo, cache, newNoopLogger(), time.Hour)
		got, err := svc.Update(ctx, 3, req)

		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, models.CategoryOffer, got.Category)
	})

	t.Run("телефон занят", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("UpdateClient", ctx, int64(3), want).Return(storage.ErrPhoneExists)
		cache.On("Invalidate", ctx, "client:3").Return(nil)

		svc := NewService(repo, cache, newNoopLogger(), time.Hour)
		_, err := svc.Update(ctx, 3, req)

		require.ErrorIs(t, err, storage.ErrPhoneExists)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("невалидные данные", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewService(repo, nil, newNoopLogger(), time.Hour)

		_, err := svc.Update(ctx, 3, models.DummyClient{Name: "Bia"})

		require.ErrorIs(t, err, ErrValidation)
		repo.AssertNotCalled(t, "UpdateClient", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("успешное удаление", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("ReadClient", ctx, int64(5)).Return(&models.Client{ID: 5}, nil)
		repo.On("RemoveClient", ctx, int64(5)).Return(1, nil)
		cache.On("Invalidate", ctx, "client:5").Return(nil)

		svc := NewService(repo, cache, newNoopLogger(), time.Hour)
		require.NoError(t, svc.Remove(ctx, 5))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("неизвестный id", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadClient", ctx, int64(6)).Return(nil, storage.ErrClientNotFound)

		svc := NewService(repo, nil, newNoopLogger(), time.Hour)
		err := svc.Remove(ctx, 6)

		require.ErrorIs(t, err, storage.ErrClientNotFound)
		repo.AssertNotCalled(t, "RemoveClient", mock.Anything, mock.Anything)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	repo.On("ListClients", ctx).Return([]*models.Client{
		{ID: 4, Name: "bruno"},
		{ID: 1, Name: "Álvaro"},
		{ID: 3, Name: "Ana"},
		{ID: 2, Name: "ana"},
		{ID: 5, Name: "Carla"},
	}, nil)

	svc := NewService(repo, nil, newNoopLogger(), time.Hour)
	got, err := svc.List(ctx)
	require.NoError(t, err)

	ids := make([]int64, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestService_ListError(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListClients", mock.Anything).Return(nil, errors.New("db down"))

	svc := NewService(repo, nil, newNoopLogger(), time.Hour)
	_, err := svc.List(context.Background())
	require.Error(t, err)
}
