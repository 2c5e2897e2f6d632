package mocks

import (
	"context"

	"ktpapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, documentType string, image []byte, mimeType string) (*service.Result, error) {
	args := m.Called(ctx, documentType, image, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Result), args.Error(1)
}
