package service

import (
	"context"
	"sync"

	"github.com/avelarde/storefront/internal/checkoutlog"
	"github.com/avelarde/storefront/internal/core/domain"
	"github.com/avelarde/storefront/internal/port"
)

// In-memory fakes for the store ports, mutex-guarded so the concurrency
// tests can hammer them.

type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product

	decrementErr  error
	denyDecrement map[string]bool
	decrements    int
}

func newMockProductRepo(products ...domain.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[string]*domain.Product), denyDecrement: make(map[string]bool)}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *mockProductRepo) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.Code == p.Code {
			return domain.ErrDuplicateCode
		}
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decrementErr != nil {
		return false, m.decrementErr
	}
	m.decrements++
	if m.denyDecrement[id] {
		return false, nil
	}
	p, ok := m.products[id]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

type mockCartRepo struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart

	replaceErr   error
	replaceCalls int
	clearCalls   int
}

func newMockCartRepo(carts ...domain.Cart) *mockCartRepo {
	m := &mockCartRepo{carts: make(map[string]*domain.Cart)}
	for i := range carts {
		c := carts[i]
		m.carts[c.ID] = &c
	}
	return m
}

func (m *mockCartRepo) items(id string) []domain.LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LineItem(nil), m.carts[id].Items...)
}

func (m *mockCartRepo) Create(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cart
	cp.Items = append([]domain.LineItem(nil), cart.Items...)
	m.carts[cart.ID] = &cp
	return nil
}

func (m *mockCartRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]domain.LineItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockCartRepo) ReplaceItems(ctx context.Context, id string, items []domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	c, ok := m.carts[id]
	if !ok {
		return domain.ErrCartNotFound
	}
	m.replaceCalls++
	c.Items = append([]domain.LineItem(nil), items...)
	return nil
}

func (m *mockCartRepo) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return domain.ErrCartNotFound
	}
	m.clearCalls++
	c.Items = []domain.LineItem{}
	return nil
}

type mockTicketRepo struct {
	mu      sync.Mutex
	tickets []domain.Ticket

	appendErr error
}

func (m *mockTicketRepo) Append(ctx context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.tickets = append(m.tickets, *t)
	return nil
}

func (m *mockTicketRepo) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tickets {
		if m.tickets[i].Code == code {
			t := m.tickets[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

func (m *mockTicketRepo) ListByPurchaser(ctx context.Context, purchaser string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, t := range m.tickets {
		if t.Purchaser == purchaser {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTicketRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

type mockBus struct {
	mu     sync.Mutex
	events []port.CatalogEvent
}

func (m *mockBus) Publish(ctx context.Context, event port.CatalogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockBus) Close() error { return nil }

func (m *mockBus) published() []port.CatalogEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]port.CatalogEvent(nil), m.events...)
}

type mockCheckoutLog struct {
	mu      sync.Mutex
	entries []checkoutlog.Entry
}

func (m *mockCheckoutLog) Save(ctx context.Context, entry *checkoutlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockCheckoutLog) all() []checkoutlog.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]checkoutlog.Entry(nil), m.entries...)
}
