package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/controtec/internal/config"
	"github.com/magabrotheeeer/controtec/internal/migrations"
	"github.com/magabrotheeeer/controtec/internal/models"
)

// testStorages драйверы, на которых прогоняются тесты хранилища.
// PostgreSQL добавляется в сборке с тегом integration.
var testStorages = map[string]func(t *testing.T) *Storage{
	DriverSQLite: setupSQLiteDatabase,
}

func setupSQLiteDatabase(t *testing.T) *Storage {
	t.Helper()
	s, err := New(config.Storage{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "data", "clients.db"),
	})
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, s.Driver()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// forEachStorage запускает тест на каждом доступном драйвере.
func forEachStorage(t *testing.T, fn func(t *testing.T, s *Storage)) {
	for name, setup := range testStorages {
		t.Run(name, func(t *testing.T) {
			fn(t, setup(t))
		})
	}
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateClient создает тестового клиента и возвращает его ID
func (f *TestDataFactory) CreateClient(t *testing.T, name, phone, product, expires string, category models.Category) int64 {
	t.Helper()
	id, err := f.storage.CreateClient(context.Background(), models.Client{
		Name:           name,
		Phone:          phone,
		Product:        product,
		ExpirationDate: expires,
		Category:       category,
	})
	require.NoError(t, err)
	return id
}

// CountClients возвращает количество строк в таблице клиентов
func (f *TestDataFactory) CountClients(t *testing.T) int {
	t.Helper()
	var count int
	require.NoError(t, f.storage.DB.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&count))
	return count
}
