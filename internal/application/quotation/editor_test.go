package quotation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcatalog "github.com/empaques/backoffice/internal/application/catalog"
	apppartner "github.com/empaques/backoffice/internal/application/partner"
	"github.com/empaques/backoffice/internal/domain/catalog"
	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/quotation"
	"github.com/empaques/backoffice/internal/domain/shared"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) ListActive(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *mockReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

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

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Create(ctx context.Context, draft *quotation.Quotation) (*quotation.Quotation, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotation.Quotation), args.Error(1)
}

func (m *mockGateway) FindByID(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotation.Quotation), args.Error(1)
}

func (m *mockGateway) Update(ctx context.Context, id uuid.UUID, q *quotation.Quotation) error {
	args := m.Called(ctx, id, q)
	return args.Error(0)
}

func (m *mockGateway) UpdateStatus(ctx context.Context, id uuid.UUID, status quotation.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockGateway) List(ctx context.Context, limit int) ([]quotation.Quotation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quotation.Quotation), args.Error(1)
}

func (m *mockGateway) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var (
	boxID = uuid.New()
	bagID = uuid.New()
)

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: boxID, Code: "CAJ-001", Name: "Caja 20x20", UnitPrice: decimal.NewFromFloat(4.50), Stock: 120, Active: true},
		{ID: bagID, Code: "BOL-010", Name: "Bolsa kraft", UnitPrice: decimal.NewFromFloat(0.80), Stock: 400, Active: true},
	}
}

// Lookup tests drive the resolver through FlushLookup, so the window is
// set far out to keep stray timers from firing mid-test.
func resolverOpts() apppartner.ResolverOptions {
	return apppartner.ResolverOptions{
		DebounceWindow: time.Hour,
		MinLength:      8,
		LookupTimeout:  time.Second,
	}
}

func newStartedSession(t *testing.T, reader *mockReader, gateway *mockGateway, directory *mockDirectory) *EditorSession {
	t.Helper()
	cache := appcatalog.NewCache(reader, zap.NewNop())
	s := NewEditorSession(cache, reader, gateway, directory, resolverOpts(), zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, PhaseEditable, s.Phase())
	return s
}

func fillValidClient(s *EditorSession) {
	_ = s.SetTaxIDType(partner.TaxIDTypeRUC)
	s.SetTaxID("20601234567")
	s.SetClientDetails("Distribuidora Norte SAC", "compras@norte.pe", "987654321", "Av. Industrial 450", "Distribuidora Norte")
}

func TestEditorStartFailureBlocksSession(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(nil, shared.ErrCatalogUnavailable)

	cache := appcatalog.NewCache(reader, zap.NewNop())
	s := NewEditorSession(cache, reader, new(mockGateway), new(mockDirectory), resolverOpts(), zap.NewNop())

	err := s.Start(context.Background())
	require.ErrorIs(t, err, shared.ErrCatalogUnavailable)
	assert.Equal(t, PhaseCatalogFailed, s.Phase())

	assert.Error(t, s.AddItem(boxID))
}

func TestEditorStartRetryAfterFailure(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(nil, shared.ErrCatalogUnavailable).Once()
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil).Once()

	cache := appcatalog.NewCache(reader, zap.NewNop())
	s := NewEditorSession(cache, reader, new(mockGateway), new(mockDirectory), resolverOpts(), zap.NewNop())

	require.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, PhaseEditable, s.Phase())
}

func TestEditorAddItemAndTotals(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	s := newStartedSession(t, reader, new(mockGateway), new(mockDirectory))

	require.NoError(t, s.AddItem(boxID))
	require.NoError(t, s.AddItem(boxID))
	require.NoError(t, s.AddItem(bagID))

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)

	totals := s.Totals()
	// 2 * 4.50 + 0.80 = 9.80, IGV 1.764
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromFloat(9.80)))
	assert.True(t, totals.Tax.Equal(decimal.NewFromFloat(1.764)))
	assert.True(t, totals.IncludesTax)

	s.SetIncludesTax(false)
	totals = s.Totals()
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.Equal(totals.Subtotal))
}

func TestEditorAddUnknownProduct(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	s := newStartedSession(t, reader, new(mockGateway), new(mockDirectory))
	assert.ErrorIs(t, s.AddItem(uuid.New()), shared.ErrNotFound)
}

func TestEditorValidationBeforeNetwork(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)
	gateway := new(mockGateway)

	s := newStartedSession(t, reader, gateway, new(mockDirectory))

	// Empty cart
	fillValidClient(s)
	_, err := s.PrepareSubmit()
	require.Error(t, err)

	// Missing client
	require.NoError(t, s.AddItem(boxID))
	s.SetClientDetails("", "", "", "", "")
	_, err = s.PrepareSubmit()
	require.Error(t, err)

	// Bad email
	s.SetClientDetails("Distribuidora Norte SAC", "not-an-email", "", "", "")
	_, err = s.PrepareSubmit()
	require.Error(t, err)

	gateway.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEditorCreateFlow(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	persisted := &quotation.Quotation{ID: uuid.New(), Number: "COT-2026-0042", Status: quotation.StatusPending}
	gateway := new(mockGateway)
	gateway.On("Create", mock.Anything, mock.MatchedBy(func(q *quotation.Quotation) bool {
		return q.IsDraft() && q.Status == quotation.StatusPending && len(q.Items) == 1
	})).Return(persisted, nil).Once()

	s := newStartedSession(t, reader, gateway, new(mockDirectory))
	require.NoError(t, s.AddItem(boxID))
	fillValidClient(s)
	s.SetNotes("Entrega en almacén central")

	draft, err := s.PrepareSubmit()
	require.NoError(t, err)
	assert.True(t, draft.IsDraft())
	assert.Equal(t, PhaseEditable, s.Phase())

	result, err := s.ConfirmSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "COT-2026-0042", result.Number)
	assert.Equal(t, PhaseSucceeded, s.Phase())
	gateway.AssertExpectations(t)
}

func TestEditorConfirmWithoutPrepare(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	s := newStartedSession(t, reader, new(mockGateway), new(mockDirectory))
	_, err := s.ConfirmSubmit(context.Background())
	assert.Error(t, err)
}

func TestEditorCancelSubmit(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)
	gateway := new(mockGateway)

	s := newStartedSession(t, reader, gateway, new(mockDirectory))
	require.NoError(t, s.AddItem(boxID))
	fillValidClient(s)

	_, err := s.PrepareSubmit()
	require.NoError(t, err)
	s.CancelSubmit()

	_, err = s.ConfirmSubmit(context.Background())
	assert.Error(t, err)
	gateway.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEditorSubmitFailureKeepsData(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	gateway := new(mockGateway)
	gateway.On("Create", mock.Anything, mock.Anything).Return(nil, shared.ErrPersistence).Once()
	gateway.On("Create", mock.Anything, mock.Anything).
		Return(&quotation.Quotation{ID: uuid.New(), Number: "COT-2026-0043"}, nil).Once()

	s := newStartedSession(t, reader, gateway, new(mockDirectory))
	require.NoError(t, s.AddItem(boxID))
	fillValidClient(s)

	_, err := s.PrepareSubmit()
	require.NoError(t, err)

	_, err = s.ConfirmSubmit(context.Background())
	require.ErrorIs(t, err, shared.ErrPersistence)
	assert.Equal(t, PhaseEditable, s.Phase())
	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, "Distribuidora Norte SAC", s.ClientForm().Name)

	// Retry succeeds with the same data
	_, err = s.PrepareSubmit()
	require.NoError(t, err)
	result, err := s.ConfirmSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "COT-2026-0043", result.Number)
}

func TestEditorLookupFillsForm(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	directory := new(mockDirectory)
	directory.On("FindByTaxID", mock.Anything, "20601234567").Return(&partner.Client{
		TaxIDType: partner.TaxIDTypeRUC,
		TaxID:     "20601234567",
		Name:      "Cartones del Sur EIRL",
		Email:     "ventas@cartones.pe",
		Phone:     "999111222",
	}, nil).Once()

	s := newStartedSession(t, reader, new(mockGateway), directory)

	s.SetTaxID("20601234567")
	s.FlushLookup()

	require.Eventually(t, s.ClientFound, time.Second, 5*time.Millisecond)
	form := s.ClientForm()
	assert.Equal(t, "Cartones del Sur EIRL", form.Name)
	assert.Equal(t, partner.TaxIDTypeRUC, form.TaxIDType)
}

func TestEditorStaleLookupDiscarded(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	release := make(chan struct{})
	directory := new(mockDirectory)
	directory.On("FindByTaxID", mock.Anything, "20601234567").
		Run(func(mock.Arguments) { <-release }).
		Return(&partner.Client{TaxIDType: partner.TaxIDTypeRUC, TaxID: "20601234567", Name: "Stale SAC"}, nil).Once()

	s := newStartedSession(t, reader, new(mockGateway), directory)

	s.SetTaxID("20601234567")
	s.FlushLookup()
	time.Sleep(10 * time.Millisecond)

	// Operator keeps typing while the lookup hangs
	s.SetTaxID("206012345678")
	close(release)
	time.Sleep(50 * time.Millisecond)

	assert.False(t, s.ClientFound())
	assert.Empty(t, s.ClientForm().Name)
}

func TestEditorTaxIDTypeSwitchClearsValue(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	s := newStartedSession(t, reader, new(mockGateway), new(mockDirectory))

	require.NoError(t, s.SetTaxIDType(partner.TaxIDTypeRUC))
	s.SetTaxID("2060123") // below minimum, no lookup scheduled
	require.NoError(t, s.SetTaxIDType(partner.TaxIDTypeDNI))

	form := s.ClientForm()
	assert.Empty(t, form.TaxID)
	assert.False(t, s.ClientFound())
}

func TestEditorStartEditReconciliation(t *testing.T) {
	products := testProducts()
	retiredID := uuid.New()
	goneID := uuid.New()

	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(products, nil)
	// Deactivated product missing from the session cache but still fetchable
	reader.On("FindByID", mock.Anything, retiredID).Return(&catalog.Product{
		ID: retiredID, Code: "CAJ-099", Name: "Caja descontinuada",
		UnitPrice: decimal.NewFromFloat(9.99), Active: false,
	}, nil).Once()
	reader.On("FindByID", mock.Anything, goneID).Return(nil, shared.ErrNotFound).Once()

	quotID := uuid.New()
	stored := &quotation.Quotation{
		ID:     quotID,
		Number: "COT-2026-0007",
		Client: partner.Client{TaxIDType: partner.TaxIDTypeRUC, TaxID: "20601234567", Name: "Distribuidora Norte SAC"},
		Items: []quotation.LineSnapshot{
			{ProductID: boxID, ProductCode: "CAJ-001", ProductName: "Caja 20x20", Quantity: 10, UnitPrice: decimal.NewFromFloat(4.20)},
			{ProductID: retiredID, ProductCode: "CAJ-099", ProductName: "Caja descontinuada", Quantity: 2, UnitPrice: decimal.NewFromFloat(9.50)},
			{ProductID: goneID, ProductCode: "XXX-000", ProductName: "Producto retirado", Quantity: 1, UnitPrice: decimal.NewFromFloat(1.00)},
		},
		Subtotal:    decimal.NewFromFloat(62.00),
		Tax:         decimal.NewFromFloat(11.16),
		Total:       decimal.NewFromFloat(73.16),
		IncludesTax: true,
		Status:      quotation.StatusPending,
	}

	gateway := new(mockGateway)
	gateway.On("FindByID", mock.Anything, quotID).Return(stored, nil).Once()

	s := newStartedSession(t, reader, gateway, new(mockDirectory))
	require.NoError(t, s.StartEdit(context.Background(), quotID))

	lines := s.Lines()
	require.Len(t, lines, 2)

	// Snapshot price wins over the live catalog price
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromFloat(4.20)))
	assert.Equal(t, 10, lines[0].Quantity)
	assert.True(t, lines[1].UnitPrice.Equal(decimal.NewFromFloat(9.50)))

	assert.Equal(t, []uuid.UUID{goneID}, s.SkippedProducts())
	assert.True(t, s.IncludesTax())
	assert.True(t, s.ClientFound())
	assert.Equal(t, "Distribuidora Norte SAC", s.ClientForm().Name)
	assert.True(t, s.IsEdit())
}

func TestEditorStartEditInfersTaxExcluded(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	quotID := uuid.New()
	stored := &quotation.Quotation{
		ID:     quotID,
		Number: "COT-2026-0008",
		Client: partner.Client{TaxIDType: partner.TaxIDTypeDNI, TaxID: "45678912", Name: "Rosa Quispe"},
		Items: []quotation.LineSnapshot{
			{ProductID: boxID, ProductCode: "CAJ-001", ProductName: "Caja 20x20", Quantity: 1, UnitPrice: decimal.NewFromFloat(4.50)},
		},
		Subtotal: decimal.NewFromFloat(4.50),
		Tax:      decimal.Zero,
		Total:    decimal.NewFromFloat(4.50),
		Status:   quotation.StatusPending,
	}

	gateway := new(mockGateway)
	gateway.On("FindByID", mock.Anything, quotID).Return(stored, nil).Once()

	s := newStartedSession(t, reader, gateway, new(mockDirectory))
	require.NoError(t, s.StartEdit(context.Background(), quotID))
	assert.False(t, s.IncludesTax())
}

func TestEditorUpdateFlowNeverSendsStatus(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	quotID := uuid.New()
	stored := &quotation.Quotation{
		ID:     quotID,
		Number: "COT-2026-0009",
		Client: partner.Client{TaxIDType: partner.TaxIDTypeRUC, TaxID: "20601234567", Name: "Distribuidora Norte SAC"},
		Items: []quotation.LineSnapshot{
			{ProductID: boxID, ProductCode: "CAJ-001", ProductName: "Caja 20x20", Quantity: 3, UnitPrice: decimal.NewFromFloat(4.50)},
		},
		Subtotal:    decimal.NewFromFloat(13.50),
		Tax:         decimal.NewFromFloat(2.43),
		Total:       decimal.NewFromFloat(15.93),
		IncludesTax: true,
		Status:      quotation.StatusInProgress,
	}

	gateway := new(mockGateway)
	gateway.On("FindByID", mock.Anything, quotID).Return(stored, nil).Once()
	gateway.On("Update", mock.Anything, quotID, mock.MatchedBy(func(q *quotation.Quotation) bool {
		return q.ID == quotID && len(q.Items) == 1 && q.Items[0].Quantity == 5
	})).Return(nil).Once()

	s := newStartedSession(t, reader, gateway, new(mockDirectory))
	require.NoError(t, s.StartEdit(context.Background(), quotID))
	require.NoError(t, s.SetItemQuantity(boxID, 5))

	_, err := s.PrepareSubmit()
	require.NoError(t, err)
	_, err = s.ConfirmSubmit(context.Background())
	require.NoError(t, err)

	gateway.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gateway.AssertExpectations(t)
}

func TestEditorStartEditWaitsForCatalog(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(nil, shared.ErrCatalogUnavailable)

	cache := appcatalog.NewCache(reader, zap.NewNop())
	gateway := new(mockGateway)
	s := NewEditorSession(cache, reader, gateway, new(mockDirectory), resolverOpts(), zap.NewNop())

	_ = s.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.StartEdit(ctx, uuid.New())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	gateway.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestEditorApplyLines(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	s := newStartedSession(t, reader, new(mockGateway), new(mockDirectory))
	require.NoError(t, s.AddItem(boxID))

	require.NoError(t, s.ApplyLines([]LineChange{
		{ProductID: boxID, Quantity: 7},
		{ProductID: bagID, Quantity: 50},
	}))
	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 7, lines[0].Quantity)
	assert.Equal(t, 50, lines[1].Quantity)

	// Omitting a product removes its line
	require.NoError(t, s.ApplyLines([]LineChange{{ProductID: bagID, Quantity: 50}}))
	lines = s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, bagID, lines[0].ProductID)
}

func TestEditorReset(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListActive", mock.Anything).Return(testProducts(), nil)

	gateway := new(mockGateway)
	gateway.On("Create", mock.Anything, mock.Anything).
		Return(&quotation.Quotation{ID: uuid.New(), Number: "COT-2026-0044"}, nil).Once()

	s := newStartedSession(t, reader, gateway, new(mockDirectory))
	require.NoError(t, s.AddItem(boxID))
	fillValidClient(s)

	_, err := s.PrepareSubmit()
	require.NoError(t, err)
	_, err = s.ConfirmSubmit(context.Background())
	require.NoError(t, err)
	require.Equal(t, PhaseSucceeded, s.Phase())

	s.Reset()
	assert.Equal(t, PhaseEditable, s.Phase())
	assert.Empty(t, s.Lines())
	assert.Empty(t, s.ClientForm().Name)
	assert.True(t, s.IncludesTax())
}
