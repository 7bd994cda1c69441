package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/controtec/internal/config"
	"github.com/magabrotheeeer/controtec/internal/models"
	"github.com/magabrotheeeer/controtec/internal/storage"
)

func TestStorage_CreateAndRead(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		want := models.Client{
			Name:           "Ana",
			Phone:          "+551199999999",
			Product:        "Plano X",
			ExpirationDate: "2024-03-13",
			Category:       models.CategoryExpiration,
		}

		id, err := s.CreateClient(ctx, want)
		require.NoError(t, err)
		assert.Positive(t, id)

		got, err := s.ReadClient(ctx, id)
		require.NoError(t, err)
		want.ID = id
		assert.Equal(t, &want, got)
	})
}

func TestStorage_CreateOptionalFieldsEmpty(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		id, err := s.CreateClient(ctx, models.Client{Name: "Bia", Phone: "+5511888"})
		require.NoError(t, err)

		got, err := s.ReadClient(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "", got.Product)
		assert.Equal(t, "", got.ExpirationDate)
		assert.Equal(t, models.CategoryNone, got.Category)
	})
}

func TestStorage_CreateDuplicatePhone(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		factory := NewTestDataFactory(s)
		firstID := factory.CreateClient(t, "Ana", "+551199999999", "Plano X", "", models.CategoryOffer)

		_, err := s.CreateClient(ctx, models.Client{Name: "Outra", Phone: "+551199999999", Category: models.CategoryHoliday})
		require.ErrorIs(t, err, storage.ErrPhoneExists)

		first, err := s.ReadClient(ctx, firstID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", first.Name)
		assert.Equal(t, models.CategoryOffer, first.Category)
		assert.Equal(t, 1, factory.CountClients(t))
	})
}

func TestStorage_Update(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		factory := NewTestDataFactory(s)
		anaID := factory.CreateClient(t, "Ana", "+551100000001", "Plano X", "2024-01-01", models.CategoryExpiration)
		bobID := factory.CreateClient(t, "Bob", "+551100000002", "Plano Y", "", models.CategoryOffer)

		tests := []struct {
			name    string
			id      int64
			update  models.Client
			wantErr error
		}{
			{
				name:   "успешное обновление",
				id:     anaID,
				update: models.Client{Name: "Ana Maria", Phone: "+551100000001", Product: "Plano Z", Category: models.CategoryHoliday},
			},
			{
				name:    "телефон другого клиента",
				id:      anaID,
				update:  models.Client{Name: "Ana", Phone: "+551100000002"},
				wantErr: storage.ErrPhoneExists,
			},
			{
				name:    "несуществующий клиент",
				id:      9999,
				update:  models.Client{Name: "X", Phone: "+551100000009"},
				wantErr: storage.ErrClientNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := s.UpdateClient(ctx, tt.id, tt.update)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
					return
				}
				require.NoError(t, err)
				got, err := s.ReadClient(ctx, tt.id)
				require.NoError(t, err)
				tt.update.ID = tt.id
				assert.Equal(t, &tt.update, got)
			})
		}

		bob, err := s.ReadClient(ctx, bobID)
		require.NoError(t, err)
		assert.Equal(t, "+551100000002", bob.Phone)
		assert.Equal(t, "Plano Y", bob.Product)

		ana, err := s.ReadClient(ctx, anaID)
		require.NoError(t, err)
		assert.Equal(t, "+551100000001", ana.Phone, "conflicting update must not touch the row")
	})
}

func TestStorage_Remove(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		factory := NewTestDataFactory(s)
		id := factory.CreateClient(t, "Ana", "+551199999999", "", "", models.CategoryNone)

		removed, err := s.RemoveClient(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		_, err = s.ReadClient(ctx, id)
		require.ErrorIs(t, err, storage.ErrClientNotFound)

		removed, err = s.RemoveClient(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
	})
}

func TestStorage_IDsAreNotReused(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		factory := NewTestDataFactory(s)
		first := factory.CreateClient(t, "Ana", "+551100000001", "", "", models.CategoryNone)
		_, err := s.RemoveClient(ctx, first)
		require.NoError(t, err)

		second := factory.CreateClient(t, "Bob", "+551100000002", "", "", models.CategoryNone)
		assert.Greater(t, second, first)
	})
}

func TestStorage_ListClients(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()

		empty, err := s.ListClients(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		factory := NewTestDataFactory(s)
		factory.CreateClient(t, "Carla", "+551100000003", "", "", models.CategoryOffer)
		factory.CreateClient(t, "Ana", "+551100000001", "", "", models.CategoryHoliday)
		factory.CreateClient(t, "Bruno", "+551100000002", "", "", models.CategoryNone)

		list, err := s.ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Ana", list[0].Name)
		assert.Equal(t, "Bruno", list[1].Name)
		assert.Equal(t, "Carla", list[2].Name)
	})
}

func TestStorage_LegacyCategoryValues(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		_, err := s.DB.Exec(`INSERT INTO clients (name, phone, category) VALUES ('Ana', '+551199999999', 'vencimento')`)
		require.NoError(t, err)

		list, err := s.ListClients(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.CategoryExpiration, list[0].Category)
	})
}

func TestStorage_CanceledContext(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.ListClients(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCheckDatabaseReady(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s *Storage) {
		require.NoError(t, CheckDatabaseReady(context.Background(), s))
	})
}

func TestStorage_Driver(t *testing.T) {
	s := setupSQLiteDatabase(t)
	require.Equal(t, DriverSQLite, s.Driver())

	_, err := New(config.Storage{Driver: "mysql"})
	require.Error(t, err)
}
