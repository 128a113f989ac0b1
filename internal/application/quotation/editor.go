package quotation

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appcatalog "github.com/empaques/backoffice/internal/application/catalog"
	apppartner "github.com/empaques/backoffice/internal/application/partner"
	"github.com/empaques/backoffice/internal/domain/catalog"
	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/quotation"
	"github.com/empaques/backoffice/internal/domain/shared"
)

// Phase is the editor lifecycle state
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseCatalogLoading Phase = "catalog_loading"
	PhaseCatalogFailed  Phase = "catalog_failed"
	PhaseEditable       Phase = "editable"
	PhaseSubmitting     Phase = "submitting"
	PhaseSucceeded      Phase = "succeeded"
)

// ClientForm holds the editable client fields of the editor
type ClientForm struct {
	TaxIDType partner.TaxIDType
	TaxID     string
	Name      string
	Email     string
	Phone     string
	Address   string
	Company   string
}

// LineChange describes one desired cart line when applying a full line set
type LineChange struct {
	ProductID uuid.UUID
	Quantity  int
}

var formValidator = validator.New()

// EditorSession drives one quotation editing flow, new or edit. The
// catalog must load before anything else: edit-mode reconciliation waits
// on the catalog's readiness guard so line restoration never races an
// unfinished load.
//
// Submission is two-step. PrepareSubmit validates and assembles the draft,
// ConfirmSubmit sends it. A failed submit returns the session to the
// editable phase with all data intact.
type EditorSession struct {
	catalog  *appcatalog.Cache
	reader   catalog.Reader
	gateway  quotation.Gateway
	resolver *apppartner.Resolver
	log      *zap.Logger

	mu          sync.Mutex
	phase       Phase
	cart        *quotation.Cart
	form        ClientForm
	clientFound bool
	includesTax bool
	notes       string
	editing     *quotation.Quotation
	pending     *quotation.Quotation
	skipped     []uuid.UUID
}

// NewEditorSession creates an idle session. The resolver's results feed the
// client form; a stale result (the identifier changed while the lookup was
// in flight) is discarded.
func NewEditorSession(
	cache *appcatalog.Cache,
	reader catalog.Reader,
	gateway quotation.Gateway,
	directory partner.Directory,
	opts apppartner.ResolverOptions,
	log *zap.Logger,
) *EditorSession {
	s := &EditorSession{
		catalog:     cache,
		reader:      reader,
		gateway:     gateway,
		log:         log.Named("editor"),
		phase:       PhaseIdle,
		cart:        quotation.NewCart(),
		includesTax: true,
		form:        ClientForm{TaxIDType: partner.TaxIDTypeDNI},
	}
	s.resolver = apppartner.NewResolver(directory, opts, s.applyLookup, log)
	return s
}

// Start loads the catalog and opens the session for a new quotation. A
// failed load leaves the session blocked; Start may be retried.
func (s *EditorSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIdle && s.phase != PhaseCatalogFailed {
		s.mu.Unlock()
		return shared.NewDomainError("INVALID_STATE", "Editor already started")
	}
	s.phase = PhaseCatalogLoading
	s.mu.Unlock()

	if err := s.catalog.Load(ctx); err != nil {
		s.mu.Lock()
		s.phase = PhaseCatalogFailed
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.phase = PhaseEditable
	s.mu.Unlock()
	return nil
}

// StartEdit loads an existing quotation into the session. It waits for
// catalog readiness first, then restores each persisted line against the
// live catalog. Products missing from the session cache are fetched
// individually (they may have been deactivated since); products that no
// longer exist at all are skipped and reported.
func (s *EditorSession) StartEdit(ctx context.Context, id uuid.UUID) error {
	if err := s.catalog.WaitReady(ctx); err != nil {
		return err
	}

	q, err := s.gateway.FindByID(ctx, id)
	if err != nil {
		return err
	}

	cart := quotation.NewCart()
	var skipped []uuid.UUID
	for _, item := range q.Items {
		product, ok := s.catalog.FindByID(item.ProductID)
		if !ok {
			fetched, err := s.reader.FindByID(ctx, item.ProductID)
			if err != nil {
				s.log.Warn("Dropping quotation line, product no longer exists",
					zap.String("product_id", item.ProductID.String()),
					zap.String("product_code", item.ProductCode))
				skipped = append(skipped, item.ProductID)
				continue
			}
			product = *fetched
		}
		if err := cart.RestoreLine(product, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = q
	s.cart = cart
	s.skipped = skipped
	s.includesTax = quotation.InferTaxIncluded(q.Subtotal, q.Tax)
	s.notes = q.Notes
	s.form = ClientForm{
		TaxIDType: q.Client.TaxIDType,
		TaxID:     q.Client.TaxID,
		Name:      q.Client.Name,
		Email:     q.Client.Email,
		Phone:     q.Client.Phone,
		Address:   q.Client.Address,
		Company:   q.Client.Company,
	}
	s.clientFound = true
	s.phase = PhaseEditable
	return nil
}

// AddItem adds one unit of a catalog product to the cart
func (s *EditorSession) AddItem(productID uuid.UUID) error {
	product, ok := s.catalog.FindByID(productID)
	if !ok {
		return shared.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditable(); err != nil {
		return err
	}
	s.cart.AddProduct(product)
	return nil
}

// SetItemQuantity sets a line quantity; zero or less removes the line
func (s *EditorSession) SetItemQuantity(productID uuid.UUID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditable(); err != nil {
		return err
	}
	s.cart.SetQuantity(productID, quantity)
	return nil
}

// RemoveItem deletes a cart line
func (s *EditorSession) RemoveItem(productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditable(); err != nil {
		return err
	}
	s.cart.Remove(productID)
	return nil
}

// ApplyLines reconciles the cart to exactly the given line set. Existing
// lines keep their price snapshot; new lines snapshot the current catalog
// price. Lines absent from the set are removed.
func (s *EditorSession) ApplyLines(changes []LineChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditable(); err != nil {
		return err
	}

	keep := make(map[uuid.UUID]bool, len(changes))
	for _, change := range changes {
		if change.Quantity <= 0 {
			s.cart.Remove(change.ProductID)
			continue
		}
		keep[change.ProductID] = true

		if line := s.cart.Line(change.ProductID); line != nil {
			s.cart.SetQuantity(change.ProductID, change.Quantity)
			continue
		}

		product, ok := s.catalog.FindByID(change.ProductID)
		if !ok {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Product %s is not in the catalog", change.ProductID))
		}
		s.cart.AddProduct(product)
		s.cart.SetQuantity(change.ProductID, change.Quantity)
	}

	for _, line := range s.cart.Lines() {
		if !keep[line.ProductID] {
			s.cart.Remove(line.ProductID)
		}
	}
	return nil
}

// SetTaxIDType changes the identifier type. Switching types clears the
// value and the found indicator; a DNI and a RUC are never the same key.
func (s *EditorSession) SetTaxIDType(t partner.TaxIDType) error {
	if !t.IsValid() {
		return shared.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form.TaxIDType == t {
		return nil
	}
	s.form.TaxIDType = t
	s.form.TaxID = ""
	s.clientFound = false
	return nil
}

// SetTaxID registers a keystroke on the identifier field and schedules a
// debounced directory lookup
func (s *EditorSession) SetTaxID(value string) {
	s.mu.Lock()
	s.form.TaxID = value
	s.clientFound = false
	s.mu.Unlock()

	s.resolver.Search(value)
}

// FlushLookup runs any pending directory lookup immediately. Called on
// identifier field blur and before submit.
func (s *EditorSession) FlushLookup() {
	s.resolver.Flush()
}

// applyLookup receives resolver results. Results for an identifier the
// operator has since edited are dropped.
func (s *EditorSession) applyLookup(res apppartner.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.TaxID != s.form.TaxID {
		return
	}
	if res.Err != nil || !res.Found {
		s.clientFound = false
		return
	}

	c := res.Client
	s.form.TaxIDType = c.TaxIDType
	s.form.Name = c.Name
	s.form.Email = c.Email
	s.form.Phone = c.Phone
	s.form.Address = c.Address
	s.form.Company = c.Company
	s.clientFound = true
}

// SetClientForm overwrites the whole client block without scheduling a
// directory lookup. Used by the one-shot API path where the caller sends
// the complete form.
func (s *EditorSession) SetClientForm(form ClientForm) error {
	if !form.TaxIDType.IsValid() {
		return shared.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
	s.clientFound = false
	return nil
}

// SetClientDetails overwrites the manually editable client fields
func (s *EditorSession) SetClientDetails(name, email, phone, address, company string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Name = name
	s.form.Email = email
	s.form.Phone = phone
	s.form.Address = address
	s.form.Company = company
}

// SetIncludesTax toggles the 18% IGV line
func (s *EditorSession) SetIncludesTax(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.includesTax = v
}

// SetNotes sets the free-text observations field
func (s *EditorSession) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = notes
}

// Totals recomputes the money summary from the current cart and tax toggle
func (s *EditorSession) Totals() quotation.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return quotation.CalculateTotals(s.cart.Lines(), s.includesTax)
}

// Validate checks the form and cart without touching the network
func (s *EditorSession) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *EditorSession) validateLocked() error {
	if !s.form.TaxIDType.IsValid() || s.form.TaxID == "" {
		return shared.NewDomainError("INVALID_CLIENT", "Client tax identifier is required")
	}
	if s.form.Name == "" {
		return shared.NewDomainError("INVALID_CLIENT", "Client name is required")
	}
	if s.form.Email != "" {
		if err := formValidator.Var(s.form.Email, "email"); err != nil {
			return shared.NewDomainError("INVALID_CLIENT", "Client email is not valid")
		}
	}
	if s.cart.IsEmpty() {
		return shared.NewDomainError("EMPTY_CART", "Add at least one product before submitting")
	}
	return nil
}

// PrepareSubmit validates the session and assembles the draft to be
// confirmed. Nothing is sent until ConfirmSubmit.
func (s *EditorSession) PrepareSubmit() (*quotation.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEditable(); err != nil {
		return nil, err
	}
	if err := s.validateLocked(); err != nil {
		return nil, err
	}

	client := partner.Client{
		TaxIDType: s.form.TaxIDType,
		TaxID:     s.form.TaxID,
		Name:      s.form.Name,
		Email:     s.form.Email,
		Phone:     s.form.Phone,
		Address:   s.form.Address,
		Company:   s.form.Company,
	}
	lines := s.cart.Lines()
	totals := quotation.CalculateTotals(lines, s.includesTax)

	draft, err := quotation.NewDraft(client, lines, totals, s.notes)
	if err != nil {
		return nil, err
	}
	if s.editing != nil {
		draft.ID = s.editing.ID
		draft.Number = s.editing.Number
		draft.Status = s.editing.Status
		draft.CreatedAt = s.editing.CreatedAt
	}

	s.pending = draft
	return draft, nil
}

// CancelSubmit drops a prepared draft without sending it
func (s *EditorSession) CancelSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// ConfirmSubmit sends the prepared draft: create for a new quotation,
// update for an edit. Updates never carry a status. On failure the session
// stays editable with everything intact.
func (s *EditorSession) ConfirmSubmit(ctx context.Context) (*quotation.Quotation, error) {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return nil, shared.NewDomainError("INVALID_STATE", "No draft prepared for submission")
	}
	draft := s.pending
	editing := s.editing
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	var (
		result *quotation.Quotation
		err    error
	)
	if editing != nil {
		err = s.gateway.Update(ctx, editing.ID, draft)
		result = draft
	} else {
		result, err = s.gateway.Create(ctx, draft)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = PhaseEditable
		return nil, err
	}

	s.pending = nil
	s.phase = PhaseSucceeded
	s.log.Info("Quotation saved",
		zap.String("id", result.ID.String()),
		zap.Bool("edit", editing != nil))
	return result, nil
}

// Reset clears the session back to an empty editable state, keeping the
// loaded catalog
func (s *EditorSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.catalog.IsReady() {
		return
	}
	s.cart = quotation.NewCart()
	s.form = ClientForm{TaxIDType: partner.TaxIDTypeDNI}
	s.clientFound = false
	s.includesTax = true
	s.notes = ""
	s.editing = nil
	s.pending = nil
	s.skipped = nil
	s.phase = PhaseEditable
}

// Phase returns the current lifecycle phase
func (s *EditorSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Lines returns the current cart lines
func (s *EditorSession) Lines() []quotation.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// ClientForm returns the current client form values
func (s *EditorSession) ClientForm() ClientForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// ClientFound reports whether the current identifier matched a directory
// record
func (s *EditorSession) ClientFound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientFound
}

// IncludesTax returns the tax toggle state
func (s *EditorSession) IncludesTax() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.includesTax
}

// Notes returns the observations field
func (s *EditorSession) Notes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes
}

// SkippedProducts lists products dropped during edit reconciliation
func (s *EditorSession) SkippedProducts() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.skipped))
	copy(out, s.skipped)
	return out
}

// IsEdit reports whether the session is editing a persisted quotation
func (s *EditorSession) IsEdit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing != nil
}

func (s *EditorSession) requireEditable() error {
	if s.phase != PhaseEditable {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Editor is not editable in phase %s", s.phase))
	}
	return nil
}
