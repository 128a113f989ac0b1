package partner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/shared"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) FindByTaxID(ctx context.Context, taxID string) (*partner.Client, error) {
	args := m.Called(ctx, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

// resultCollector gathers callback results safely across goroutines
type resultCollector struct {
	mu      sync.Mutex
	results []Result
	signal  chan struct{}
}

func newCollector() *resultCollector {
	return &resultCollector{signal: make(chan struct{}, 16)}
}

func (c *resultCollector) collect(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *resultCollector) wait(t *testing.T) Result {
	t.Helper()
	select {
	case <-c.signal:
	case <-time.After(time.Second):
		t.Fatal("no lookup result arrived")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[len(c.results)-1]
}

func (c *resultCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func testOptions() ResolverOptions {
	return ResolverOptions{
		DebounceWindow: 30 * time.Millisecond,
		MinLength:      8,
		LookupTimeout:  time.Second,
	}
}

func TestResolverDebouncedLookup(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("FindByTaxID", mock.Anything, "20601234567").
		Return(&partner.Client{TaxID: "20601234567", Name: "Distribuidora Norte SAC"}, nil).Once()

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	r.Search("20601234567")
	result := collector.wait(t)

	assert.True(t, result.Found)
	assert.Equal(t, "Distribuidora Norte SAC", result.Client.Name)
	dir.AssertExpectations(t)
}

func TestResolverResetsTimerPerKeystroke(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("FindByTaxID", mock.Anything, "20601234567").
		Return(&partner.Client{TaxID: "20601234567"}, nil).Once()

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	// Keystrokes closer together than the window must coalesce into one
	// lookup for the final value only.
	r.Search("20601234")
	time.Sleep(5 * time.Millisecond)
	r.Search("206012345")
	time.Sleep(5 * time.Millisecond)
	r.Search("20601234567")

	collector.wait(t)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, collector.count())
	dir.AssertNumberOfCalls(t, "FindByTaxID", 1)
}

func TestResolverIgnoresShortInput(t *testing.T) {
	dir := new(mockDirectory)

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	r.Search("2060123")
	time.Sleep(80 * time.Millisecond)

	assert.Zero(t, collector.count())
	dir.AssertNotCalled(t, "FindByTaxID", mock.Anything, mock.Anything)
}

func TestResolverShortInputCancelsPending(t *testing.T) {
	dir := new(mockDirectory)

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	r.Search("20601234567")
	// Backspacing below the minimum before the window elapses cancels the
	// scheduled lookup.
	r.Search("2060")
	time.Sleep(80 * time.Millisecond)

	assert.Zero(t, collector.count())
	dir.AssertNotCalled(t, "FindByTaxID", mock.Anything, mock.Anything)
}

func TestResolverNotFoundIsNotAnError(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("FindByTaxID", mock.Anything, "99999999").Return(nil, shared.ErrNotFound).Once()

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	r.Search("99999999")
	result := collector.wait(t)

	assert.False(t, result.Found)
	assert.NoError(t, result.Err)
}

func TestResolverLookupFailureSurfacesError(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("FindByTaxID", mock.Anything, "20601234567").Return(nil, shared.ErrLookupFailed).Once()

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	r.Search("20601234567")
	result := collector.wait(t)

	assert.False(t, result.Found)
	assert.ErrorIs(t, result.Err, shared.ErrLookupFailed)
}

func TestResolverFlushBypassesWindow(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("FindByTaxID", mock.Anything, "20601234567").
		Return(&partner.Client{TaxID: "20601234567"}, nil).Once()

	collector := newCollector()
	opts := testOptions()
	opts.DebounceWindow = 10 * time.Second
	r := NewResolver(dir, opts, collector.collect, zap.NewNop())

	r.Search("20601234567")
	r.Flush()

	result := collector.wait(t)
	assert.True(t, result.Found)
}

func TestResolverFlushRespectsMinLength(t *testing.T) {
	dir := new(mockDirectory)

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	r.Search("2060")
	r.Flush()
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, collector.count())
	dir.AssertNotCalled(t, "FindByTaxID", mock.Anything, mock.Anything)
}

func TestResolverInFlightExclusion(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	dir := new(mockDirectory)
	dir.On("FindByTaxID", mock.Anything, "20601234567").
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&partner.Client{TaxID: "20601234567"}, nil).Once()

	collector := newCollector()
	r := NewResolver(dir, testOptions(), collector.collect, zap.NewNop())

	r.Search("20601234567")
	<-started

	// Firing again while the first lookup is still running must be dropped
	r.Flush()
	time.Sleep(50 * time.Millisecond)
	close(release)

	collector.wait(t)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, collector.count())
	dir.AssertNumberOfCalls(t, "FindByTaxID", 1)
}

func TestResolverResolve(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("FindByTaxID", mock.Anything, "20601234567").
		Return(&partner.Client{TaxID: "20601234567", Name: "Cartones del Sur EIRL"}, nil).Once()

	r := NewResolver(dir, testOptions(), nil, zap.NewNop())

	client, err := r.Resolve(context.Background(), "20601234567")
	require.NoError(t, err)
	assert.Equal(t, "Cartones del Sur EIRL", client.Name)
}

func TestResolverResolveShortInput(t *testing.T) {
	dir := new(mockDirectory)
	r := NewResolver(dir, testOptions(), nil, zap.NewNop())

	_, err := r.Resolve(context.Background(), "2060")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	dir.AssertNotCalled(t, "FindByTaxID", mock.Anything, mock.Anything)
}
