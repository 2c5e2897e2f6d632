package mocks

import (
	"context"

	"ktpapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByHash(ctx context.Context, hash string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRepository) FindByIdentifier(ctx context.Context, identifier, documentType string, maxAgeDays int) (*model.DocumentRecord, error) {
	args := m.Called(ctx, identifier, documentType, maxAgeDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRepository) UpdateHash(ctx context.Context, rec *model.DocumentRecord, newHash string) error {
	args := m.Called(ctx, rec, newHash)
	return args.Error(0)
}
