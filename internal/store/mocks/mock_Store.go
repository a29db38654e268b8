// Package mocks provides test doubles for the store.
package mocks

import (
	"context"

	store "github.com/sells-group/synthgeo/internal/store"
	mock "github.com/stretchr/testify/mock"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// CreateRun provides a mock function with given fields: ctx, seed, days
func (_m *MockStore) CreateRun(ctx context.Context, seed uint64, days int) (*store.Run, error) {
	ret := _m.Called(ctx, seed, days)

	if len(ret) == 0 {
		panic("no return value specified for CreateRun")
	}

	var r0 *store.Run
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, uint64, int) (*store.Run, error)); ok {
		return rf(ctx, seed, days)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*store.Run)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// UpdateRunStatus provides a mock function with given fields: ctx, runID, status
func (_m *MockStore) UpdateRunStatus(ctx context.Context, runID string, status store.RunStatus) error {
	ret := _m.Called(ctx, runID, status)

	if len(ret) == 0 {
		panic("no return value specified for UpdateRunStatus")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, store.RunStatus) error); ok {
		return rf(ctx, runID, status)
	}
	return ret.Error(0)
}

// GetRun provides a mock function with given fields: ctx, runID
func (_m *MockStore) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	ret := _m.Called(ctx, runID)

	if len(ret) == 0 {
		panic("no return value specified for GetRun")
	}

	var r0 *store.Run
	if rf, ok := ret.Get(0).(func(context.Context, string) (*store.Run, error)); ok {
		return rf(ctx, runID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*store.Run)
	}

	return r0, ret.Error(1)
}

// ListRuns provides a mock function with given fields: ctx, filter
func (_m *MockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]store.Run, error) {
	ret := _m.Called(ctx, filter)

	if len(ret) == 0 {
		panic("no return value specified for ListRuns")
	}

	var r0 []store.Run
	if rf, ok := ret.Get(0).(func(context.Context, store.RunFilter) ([]store.Run, error)); ok {
		return rf(ctx, filter)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]store.Run)
	}

	return r0, ret.Error(1)
}

// RecordMetrics provides a mock function with given fields: ctx, runID, metrics
func (_m *MockStore) RecordMetrics(ctx context.Context, runID string, metrics []store.Metric) error {
	ret := _m.Called(ctx, runID, metrics)

	if len(ret) == 0 {
		panic("no return value specified for RecordMetrics")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, []store.Metric) error); ok {
		return rf(ctx, runID, metrics)
	}
	return ret.Error(0)
}

// Metrics provides a mock function with given fields: ctx, runID
func (_m *MockStore) Metrics(ctx context.Context, runID string) ([]store.Metric, error) {
	ret := _m.Called(ctx, runID)

	if len(ret) == 0 {
		panic("no return value specified for Metrics")
	}

	var r0 []store.Metric
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]store.Metric, error)); ok {
		return rf(ctx, runID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]store.Metric)
	}

	return r0, ret.Error(1)
}

// SavePlaces provides a mock function with given fields: ctx, runID, rows
func (_m *MockStore) SavePlaces(ctx context.Context, runID string, rows []store.PlaceRow) (int64, error) {
	ret := _m.Called(ctx, runID, rows)

	if len(ret) == 0 {
		panic("no return value specified for SavePlaces")
	}

	var r0 int64
	if rf, ok := ret.Get(0).(func(context.Context, string, []store.PlaceRow) (int64, error)); ok {
		return rf(ctx, runID, rows)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, []store.PlaceRow) int64); ok {
		r0 = rf(ctx, runID, rows)
	} else {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		return rf(ctx)
	}
	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	if rf, ok := ret.Get(0).(func() error); ok {
		return rf()
	}
	return ret.Error(0)
}

// NewMockStore creates a new instance of MockStore.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	mock := &MockStore{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
