package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/teenyweeny/urlshortener/internal/models"
	"github.com/teenyweeny/urlshortener/internal/repository"
)

// mockRepository is a testify mock of repository.LinkRepository for failure paths.
type mockRepository struct {
	mock.Mock
}

var _ repository.LinkRepository = (*mockRepository)(nil)

func linksArg(args mock.Arguments) []models.Link {
	if v := args.Get(0); v != nil {
		return v.([]models.Link)
	}
	return nil
}

func (m *mockRepository) Put(ctx context.Context, link *models.Link) (string, error) {
	args := m.Called(ctx, link)
	return args.String(0), args.Error(1)
}

func (m *mockRepository) PutIfAbsent(ctx context.Context, link *models.Link) (bool, error) {
	args := m.Called(ctx, link)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id string, patch repository.LinkPatch) (bool, error) {
	args := m.Called(ctx, id, patch)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) IncrementClicks(ctx context.Context, id string, delta int64) (int64, bool, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockRepository) Remove(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) GetAll(ctx context.Context) ([]models.Link, error) {
	args := m.Called(ctx)
	return linksArg(args), args.Error(1)
}

func (m *mockRepository) FindBy(ctx context.Context, field repository.Field, value any) ([]models.Link, error) {
	args := m.Called(ctx, field, value)
	return linksArg(args), args.Error(1)
}
