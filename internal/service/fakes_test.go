package service

import (
	"context"
	"io"
	"sync"
	"time"

	"zalama/config"
	"zalama/internal/docstore"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/pkg/email"
	"zalama/pkg/payment"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		Lengo:         config.LengoConfig{Currency: "GNF", CallbackURL: "https://admin.test/api/payments/lengo-callback"},
		Reimbursement: config.ReimbursementConfig{FeeRate: "0.065", DueAfterDays: 30},
	}
}

type memTransactions struct {
	mu     sync.Mutex
	rows   map[uint]*models.Transaction
	nextID uint
	writes int
	// reimbursed marks transaction ids that already have a reimbursement (ListEligible).
	reimbursed map[uint]bool
}

func newMemTransactions(rows ...models.Transaction) *memTransactions {
	m := &memTransactions{rows: map[uint]*models.Transaction{}, reimbursed: map[uint]bool{}}
	for i := range rows {
		r := rows[i]
		m.rows[r.ID] = &r
		if r.ID > m.nextID {
			m.nextID = r.ID
		}
	}
	return m
}

func (m *memTransactions) Create(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTransactions) GetByID(_ context.Context, id uint) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memTransactions) ListEligible(_ context.Context, partnerID uint) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, r := range m.rows {
		if r.Statut == "EFFECTUEE" && !m.reimbursed[r.ID] && (partnerID == 0 || r.PartnerID == partnerID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memTransactions) ListByPayID(_ context.Context, payID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, r := range m.rows {
		if r.PayID == payID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memTransactions) ApplyStatus(_ context.Context, id uint, from string, updates map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Statut != from {
		return false, nil
	}
	m.writes++
	if v, ok := updates["statut"].(string); ok {
		r.Statut = v
	}
	if v, ok := updates["numero_reception"].(string); ok {
		r.NumeroReception = v
	}
	if v, ok := updates["date_effectuee"].(time.Time); ok {
		r.DateEffectuee = &v
	}
	if v, ok := updates["updated_at"].(time.Time); ok {
		r.UpdatedAt = v
	}
	return true, nil
}

type memReimbursements struct {
	mu      sync.Mutex
	rows    map[uint]*models.Reimbursement
	history []models.ReimbursementHistory
	nextID  uint
	writes  int
}

func newMemReimbursements(rows ...models.Reimbursement) *memReimbursements {
	m := &memReimbursements{rows: map[uint]*models.Reimbursement{}}
	for i := range rows {
		r := rows[i]
		m.rows[r.ID] = &r
		if r.ID > m.nextID {
			m.nextID = r.ID
		}
	}
	return m
}

func (m *memReimbursements) Create(_ context.Context, rb *models.Reimbursement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TransactionID == rb.TransactionID {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	rb.ID = m.nextID
	cp := *rb
	m.rows[rb.ID] = &cp
	return nil
}

func (m *memReimbursements) GetByID(_ context.Context, id uint) (*models.Reimbursement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	for _, h := range m.history {
		if h.ReimbursementID == id {
			cp.History = append(cp.History, h)
		}
	}
	return &cp, nil
}

func (m *memReimbursements) ExistsForTransaction(_ context.Context, transactionID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memReimbursements) ListAll(_ context.Context, f repository.ReimbursementFilter) ([]models.Reimbursement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reimbursement
	for id := uint(1); id <= m.nextID; id++ {
		r, ok := m.rows[id]
		if !ok {
			continue
		}
		if f.PartnerID != 0 && r.PartnerID != f.PartnerID {
			continue
		}
		if f.Status != "" && r.Statut != f.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memReimbursements) List(ctx context.Context, f repository.ReimbursementFilter) ([]models.Reimbursement, int64, error) {
	out, err := m.ListAll(ctx, f)
	return out, int64(len(out)), err
}

func (m *memReimbursements) ListPendingByPartner(ctx context.Context, partnerID uint) ([]models.Reimbursement, error) {
	return m.ListAll(ctx, repository.ReimbursementFilter{PartnerID: partnerID, Status: "EN_ATTENTE"})
}

func (m *memReimbursements) ListByPayID(_ context.Context, payID string) ([]models.Reimbursement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reimbursement
	for _, r := range m.rows {
		if r.PayID == payID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReimbursements) AttachPayment(_ context.Context, ids []uint, payID, paymentURL, method string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		r, ok := m.rows[id]
		if !ok || r.Statut != "EN_ATTENTE" {
			continue
		}
		r.PayID, r.PaymentURL, r.MethodePaiement = payID, paymentURL, method
		n++
	}
	m.writes++
	return n, nil
}

func (m *memReimbursements) ApplyStatus(_ context.Context, id uint, from string, updates map[string]interface{}, h *models.ReimbursementHistory) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Statut != from {
		return false, nil
	}
	m.writes++
	if v, ok := updates["statut"].(string); ok {
		r.Statut = v
	}
	if v, ok := updates["numero_reception"].(string); ok {
		r.NumeroReception = v
	}
	if v, ok := updates["commentaire_admin"].(string); ok {
		r.CommentaireAdmin = v
	}
	if v, ok := updates["date_remboursement"].(time.Time); ok {
		r.DateRemboursement = &v
	}
	if v, ok := updates["updated_at"].(time.Time); ok {
		r.UpdatedAt = v
	}
	if h != nil {
		h.ReimbursementID = id
		m.history = append(m.history, *h)
	}
	return true, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	createFn    func(req payment.PaymentRequest) (*payment.PaymentResponse, error)
	statusFn    func(payID string) (*payment.StatusResponse, error)
	creates     []payment.PaymentRequest
	statusCalls int
}

func (g *fakeGateway) CreatePayment(_ context.Context, req payment.PaymentRequest) (*payment.PaymentResponse, error) {
	g.mu.Lock()
	g.creates = append(g.creates, req)
	g.mu.Unlock()
	if g.createFn == nil {
		return &payment.PaymentResponse{PayID: "PAY-1", PaymentURL: "https://pay.test/PAY-1"}, nil
	}
	return g.createFn(req)
}

func (g *fakeGateway) GetStatus(_ context.Context, payID string) (*payment.StatusResponse, error) {
	g.mu.Lock()
	g.statusCalls++
	g.mu.Unlock()
	return g.statusFn(payID)
}

type dispatchCall struct {
	Event    string
	EntityID uint
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event string, entityID uint) (*DispatchResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{event, entityID})
	if d.err != nil {
		return nil, d.err
	}
	return &DispatchResult{Event: event, EntityID: entityID}, nil
}

type fakeNotifier struct {
	types []string
}

func (n *fakeNotifier) NotifyAdmins(_ context.Context, notifType, _, _ string) {
	n.types = append(n.types, notifType)
}

type fakeSMS struct {
	mu   sync.Mutex
	sent [][]string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to []string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return "sms-1", nil
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeEmail) Send(_ context.Context, msg email.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "email-1", nil
}

type memMessageLogs struct {
	mu   sync.Mutex
	logs []docstore.MessageLog
}

func (m *memMessageLogs) Insert(_ context.Context, l *docstore.MessageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *l)
	return nil
}

type memAdvances struct {
	mu     sync.Mutex
	rows   map[uint]*models.SalaryAdvanceRequest
	nextID uint
	// employees backs the Employee preload of GetByID.
	employees *memEmployees
}

func newMemAdvances(employees *memEmployees, rows ...models.SalaryAdvanceRequest) *memAdvances {
	m := &memAdvances{rows: map[uint]*models.SalaryAdvanceRequest{}, employees: employees}
	for i := range rows {
		r := rows[i]
		m.rows[r.ID] = &r
		if r.ID > m.nextID {
			m.nextID = r.ID
		}
	}
	return m
}

func (m *memAdvances) Create(_ context.Context, a *models.SalaryAdvanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	cp := *a
	cp.Employee = nil
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAdvances) GetByID(ctx context.Context, id uint) (*models.SalaryAdvanceRequest, error) {
	m.mu.Lock()
	r, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	cp := *r
	m.mu.Unlock()
	if m.employees != nil {
		if e, err := m.employees.GetByID(ctx, cp.EmployeeID); err == nil {
			cp.Employee = e
		}
	}
	return &cp, nil
}

func (m *memAdvances) Decide(_ context.Context, id uint, from string, updates map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Statut != from {
		return false, nil
	}
	if v, ok := updates["statut"].(string); ok {
		r.Statut = v
	}
	if v, ok := updates["motif_rejet"].(string); ok {
		r.MotifRejet = v
	}
	if v, ok := updates["date_traitement"].(time.Time); ok {
		r.DateTraitement = &v
	}
	return true, nil
}

type memEmployees struct {
	mu   sync.Mutex
	rows map[uint]*models.Employee
}

func newMemEmployees(rows ...models.Employee) *memEmployees {
	m := &memEmployees{rows: map[uint]*models.Employee{}}
	for i := range rows {
		r := rows[i]
		m.rows[r.ID] = &r
	}
	return m
}

func (m *memEmployees) GetByID(_ context.Context, id uint) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memEmployees) ListActiveByPartner(_ context.Context, partnerID uint) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Employee
	for id := uint(1); id <= uint(len(m.rows)+100); id++ {
		if r, ok := m.rows[id]; ok && r.PartnerID == partnerID && r.Actif {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memEmployees) ListWithoutAccount(_ context.Context) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Employee
	for id := uint(1); id <= uint(len(m.rows)+100); id++ {
		if r, ok := m.rows[id]; ok && r.UserID == nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memEmployees) LinkUser(_ context.Context, employeeID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[employeeID]
	if !ok || r.UserID != nil {
		return repository.ErrNotFound
	}
	uid := userID
	r.UserID = &uid
	return nil
}

type memUsers struct {
	mu     sync.Mutex
	rows   map[uint]*models.User
	nextID uint
}

func newMemUsers(rows ...models.User) *memUsers {
	m := &memUsers{rows: map[uint]*models.User{}}
	for i := range rows {
		r := rows[i]
		m.rows[r.ID] = &r
		if r.ID > m.nextID {
			m.nextID = r.ID
		}
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, addr string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == addr {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) TouchLogin(_ context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		r.LastLoginAt = &at
	}
	return nil
}

type memCampaigns struct {
	mu   sync.Mutex
	rows []docstore.Campaign
}

func (m *memCampaigns) Insert(_ context.Context, c *docstore.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memCampaigns) List(_ context.Context, limit, offset int64) ([]docstore.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= int64(len(m.rows)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(m.rows)) {
		end = int64(len(m.rows))
	}
	return append([]docstore.Campaign(nil), m.rows[offset:end]...), nil
}

func testChannels(s *fakeSMS, e *fakeEmail, logs *memMessageLogs) *Channels {
	return NewChannels(s, e, nil, logs, "GN", quietLogger())
}
