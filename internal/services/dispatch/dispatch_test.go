package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/controtec/internal/lib/metrics"
	"github.com/magabrotheeeer/controtec/internal/models"
)

type ListerMock struct{ mock.Mock }

func (m *ListerMock) List(ctx context.Context) ([]*models.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

type MessengerMock struct{ mock.Mock }

func (m *MessengerMock) Send(ctx context.Context, phone, text string) error {
	return m.Called(ctx, phone, text).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestService(l Lister, m Messenger, met *metrics.Metrics, today time.Time) *Service {
	svc := NewService(l, m, met, newNoopLogger())
	svc.now = func() time.Time { return today }
	return svc
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2024, time.December, 20, 10, 0, 0, 0, time.UTC)

	clients := []*models.Client{
		{ID: 1, Name: "Ana", Phone: "111", Product: "Plano X", ExpirationDate: "2024-12-23", Category: models.CategoryExpiration},
		{ID: 2, Name: "Bia", Phone: "222", Product: "Plano Y", ExpirationDate: "2025-02-01", Category: models.CategoryExpiration},
		{ID: 3, Name: "", Phone: "333", Product: "Plano Z", Category: models.CategoryOffer},
		{ID: 4, Name: "Caio", Phone: "444", Category: models.CategoryHoliday},
		{ID: 5, Name: "Duda", Phone: "555", ExpirationDate: "amanhã", Category: models.CategoryExpiration},
		{ID: 6, Name: "Edu", Phone: "666"},
	}

	lister := new(ListerMock)
	lister.On("List", ctx).Return(clients, nil)

	messenger := new(MessengerMock)
	messenger.On("Send", ctx, "111", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "Ana") && strings.Contains(text, "2024-12-23")
	})).Return(nil).Once()
	messenger.On("Send", ctx, "333", mock.Anything).Return(errors.New("browser closed")).Once()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	report, err := newTestService(lister, messenger, met, today).Sweep(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, report.SweepID)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 2, report.Eligible)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"3"}, report.FailedRecipients)
	assert.Equal(t, today, report.StartedAt)
	assert.Equal(t, today, report.FinishedAt)

	messenger.AssertExpectations(t)
	messenger.AssertNumberOfCalls(t, "Send", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(met.MessagesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.MessagesFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.Sweeps))
}

func TestSweep_HolidayOnChristmas(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2024, time.December, 25, 8, 0, 0, 0, time.UTC)

	lister := new(ListerMock)
	lister.On("List", ctx).Return([]*models.Client{
		{ID: 1, Name: "Caio", Phone: "444", Category: models.CategoryHoliday},
	}, nil)
	messenger := new(MessengerMock)
	messenger.On("Send", ctx, "444", mock.Anything).Return(nil)

	report, err := newTestService(lister, messenger, nil, today).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Empty(t, report.FailedRecipients)
}

func TestSweep_AllFailuresCollected(t *testing.T) {
	ctx := context.Background()
	lister := new(ListerMock)
	lister.On("List", ctx).Return([]*models.Client{
		{ID: 1, Name: "Ana", Phone: "111", Category: models.CategoryOffer},
		{ID: 2, Name: "Bia", Phone: "222", Category: models.CategoryOffer},
	}, nil)
	messenger := new(MessengerMock)
	messenger.On("Send", ctx, mock.Anything, mock.Anything).Return(errors.New("offline"))

	report, err := newTestService(lister, messenger, nil, time.Now()).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, []string{"Ana", "Bia"}, report.FailedRecipients)
}

func TestSweep_ListError(t *testing.T) {
	lister := new(ListerMock)
	lister.On("List", mock.Anything).Return(nil, errors.New("db down"))
	messenger := new(MessengerMock)

	_, err := newTestService(lister, messenger, nil, time.Now()).Sweep(context.Background())
	require.Error(t, err)
	messenger.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lister := new(ListerMock)
	lister.On("List", ctx).Return([]*models.Client{
		{ID: 1, Name: "Ana", Phone: "111", Category: models.CategoryOffer},
		{ID: 2, Name: "Bia", Phone: "222", Category: models.CategoryOffer},
	}, nil)
	messenger := new(MessengerMock)
	messenger.On("Send", ctx, "111", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil)

	report, err := newTestService(lister, messenger, nil, time.Now()).Sweep(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Sent)
	messenger.AssertNumberOfCalls(t, "Send", 1)
}

func TestRecipient(t *testing.T) {
	assert.Equal(t, "Ana", recipient(&models.Client{ID: 1, Name: "Ana"}))
	assert.Equal(t, "42", recipient(&models.Client{ID: 42}))
}
