// Package mocks holds testify mocks shared across package tests
package mocks

import (
	"context"
	"encoding/json"

	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockRateProvider mocks the RateProvider interface
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) GetRates(ctx context.Context, base string) (*entity.RateTable, error) {
	args := m.Called(ctx, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateTable), args.Error(1)
}

func (m *MockRateProvider) GetHistorical(ctx context.Context, base, target string) (json.RawMessage, error) {
	args := m.Called(ctx, base, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockCache mocks the repository.Cache interface
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, out interface{}) bool {
	args := m.Called(ctx, key, out)
	return args.Bool(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockCache) SetRaw(ctx context.Context, key string, raw []byte) error {
	args := m.Called(ctx, key, raw)
	return args.Error(0)
}

func (m *MockCache) Has(ctx context.Context, key string) bool {
	args := m.Called(ctx, key)
	return args.Bool(0)
}
