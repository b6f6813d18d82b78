package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

// memStore is an in-memory repository.Store for service tests. It is
// not safe for concurrent use and WithinTx provides no rollback; tests
// exercise service logic, not transactionality.
type memStore struct {
	nextID int64

	users        map[int64]domain.User
	products     map[int64]domain.Product
	carts        map[int64]domain.Cart // keyed by cart ID
	cartLines    map[int64]domain.CartLine
	addresses    map[int64]domain.Address
	paymentCards map[int64]domain.PaymentCard
	checkouts    map[int64]domain.CheckoutSession
	orders       map[int64]domain.Order
	orderLines   map[int64][]domain.OrderLine

	// failSellUnits makes the next SellUnits call report insufficient
	// inventory, regardless of the actual quantity on hand.
	failSellUnits bool
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[int64]domain.User),
		products:     make(map[int64]domain.Product),
		carts:        make(map[int64]domain.Cart),
		cartLines:    make(map[int64]domain.CartLine),
		addresses:    make(map[int64]domain.Address),
		paymentCards: make(map[int64]domain.PaymentCard),
		checkouts:    make(map[int64]domain.CheckoutSession),
		orders:       make(map[int64]domain.Order),
		orderLines:   make(map[int64][]domain.OrderLine),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) Users() repository.UserRepository                { return (*memUsers)(m) }
func (m *memStore) Products() repository.ProductRepository          { return (*memProducts)(m) }
func (m *memStore) Carts() repository.CartRepository                { return (*memCarts)(m) }
func (m *memStore) CartLines() repository.CartLineRepository        { return (*memCartLines)(m) }
func (m *memStore) Addresses() repository.AddressRepository         { return (*memAddresses)(m) }
func (m *memStore) PaymentCards() repository.PaymentCardRepository  { return (*memPaymentCards)(m) }
func (m *memStore) Checkouts() repository.CheckoutRepository        { return (*memCheckouts)(m) }
func (m *memStore) Orders() repository.OrderRepository              { return (*memOrders)(m) }
func (m *memStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

// seedUser creates a user with an empty cart and returns both.
func (m *memStore) seedUser(email string) (domain.User, domain.Cart) {
	u := domain.User{ID: m.id(), Email: email, Name: email, CreatedAt: time.Now()}
	m.users[u.ID] = u
	c := domain.Cart{
		ID:       m.id(),
		UserID:   u.ID,
		Subtotal: decimal.Zero,
		Taxes:    decimal.Zero,
		Total:    decimal.Zero,
	}
	m.carts[c.ID] = c
	return u, c
}

func (m *memStore) seedProduct(name string, price string, discountPercent int32, inventory int64) domain.Product {
	p := domain.Product{
		ID:              m.id(),
		Name:            name,
		Price:           decimal.RequireFromString(price),
		DiscountPercent: discountPercent,
		Inventory:       inventory,
	}
	m.products[p.ID] = p
	return p
}

func (m *memStore) seedAddress(userID int64, t domain.AddressType) domain.Address {
	a := domain.Address{
		ID:         m.id(),
		UserID:     userID,
		Type:       t,
		FullName:   "Pat Doe",
		Line1:      "1 Main St",
		City:       "Toronto",
		Region:     "ON",
		PostalCode: "M5V 1A1",
		Country:    "CA",
	}
	m.addresses[a.ID] = a
	return a
}

func (m *memStore) seedCard(userID int64) domain.PaymentCard {
	card := domain.PaymentCard{
		ID:                  m.id(),
		UserID:              userID,
		ProviderCustomerRef: "cus_test",
		ProviderCardRef:     "pm_test",
		Brand:               "visa",
		Last4:               "4242",
		ExpMonth:            12,
		ExpYear:             2030,
	}
	m.paymentCards[card.ID] = card
	return card
}

type memUsers memStore

func (m *memUsers) Create(ctx context.Context, email, name string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return domain.User{}, fmt.Errorf("users_email_key: %w", repository.ErrConflict)
		}
	}
	u := domain.User{ID: (*memStore)(m).id(), Email: email, Name: name, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) FindByID(ctx context.Context, id int64) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

type memProducts memStore

func (m *memProducts) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) List(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProducts) SellUnits(ctx context.Context, productID, qty int64) (bool, error) {
	p, ok := m.products[productID]
	if !ok {
		return false, nil
	}
	if m.failSellUnits || p.Inventory < qty {
		return false, nil
	}
	p.Inventory -= qty
	p.TotalSold += qty
	m.products[productID] = p
	return true, nil
}

type memCarts memStore

func (m *memCarts) Create(ctx context.Context, userID int64) (domain.Cart, error) {
	c := domain.Cart{
		ID:       (*memStore)(m).id(),
		UserID:   userID,
		Subtotal: decimal.Zero,
		Taxes:    decimal.Zero,
		Total:    decimal.Zero,
	}
	m.carts[c.ID] = c
	return c, nil
}

func (m *memCarts) FindByUserID(ctx context.Context, userID int64) (domain.Cart, error) {
	for _, c := range m.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	return domain.Cart{}, repository.ErrNotFound
}

func (m *memCarts) Lock(ctx context.Context, cartID int64) (domain.Cart, error) {
	c, ok := m.carts[cartID]
	if !ok {
		return domain.Cart{}, repository.ErrNotFound
	}
	return c, nil
}

func (m *memCarts) UpdateAggregates(ctx context.Context, cartID int64, numItems int64, subtotal, taxes, total decimal.Decimal) error {
	c, ok := m.carts[cartID]
	if !ok {
		return repository.ErrNotFound
	}
	c.NumItems = numItems
	c.Subtotal = subtotal
	c.Taxes = taxes
	c.Total = total
	m.carts[cartID] = c
	return nil
}

type memCartLines memStore

func (m *memCartLines) ListByCartID(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for _, l := range m.cartLines {
		if l.CartID == cartID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memCartLines) FindByCartAndProduct(ctx context.Context, cartID, productID int64) (domain.CartLine, error) {
	for _, l := range m.cartLines {
		if l.CartID == cartID && l.ProductID == productID {
			return l, nil
		}
	}
	return domain.CartLine{}, repository.ErrNotFound
}

func (m *memCartLines) Upsert(ctx context.Context, cartID, productID, deltaQty int64) error {
	for id, l := range m.cartLines {
		if l.CartID == cartID && l.ProductID == productID {
			l.Quantity += deltaQty
			m.cartLines[id] = l
			return nil
		}
	}
	l := domain.CartLine{ID: (*memStore)(m).id(), CartID: cartID, ProductID: productID, Quantity: deltaQty}
	m.cartLines[l.ID] = l
	return nil
}

func (m *memCartLines) UpdateQuantity(ctx context.Context, lineID, quantity int64) error {
	l, ok := m.cartLines[lineID]
	if !ok {
		return repository.ErrNotFound
	}
	l.Quantity = quantity
	m.cartLines[lineID] = l
	return nil
}

func (m *memCartLines) Delete(ctx context.Context, lineID int64) error {
	delete(m.cartLines, lineID)
	return nil
}

func (m *memCartLines) DeleteAllByCartID(ctx context.Context, cartID int64) error {
	for id, l := range m.cartLines {
		if l.CartID == cartID {
			delete(m.cartLines, id)
		}
	}
	return nil
}

type memAddresses memStore

func (m *memAddresses) Create(ctx context.Context, a domain.Address) (domain.Address, error) {
	for _, existing := range m.addresses {
		if existing.UserID == a.UserID && existing.Type == a.Type {
			return domain.Address{}, fmt.Errorf("addresses_user_type_key: %w", repository.ErrConflict)
		}
	}
	a.ID = (*memStore)(m).id()
	m.addresses[a.ID] = a
	return a, nil
}

func (m *memAddresses) FindByID(ctx context.Context, userID, addressID int64) (domain.Address, error) {
	a, ok := m.addresses[addressID]
	if !ok || a.UserID != userID {
		return domain.Address{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memAddresses) FindByType(ctx context.Context, userID int64, t domain.AddressType) (domain.Address, error) {
	for _, a := range m.addresses {
		if a.UserID == userID && a.Type == t {
			return a, nil
		}
	}
	return domain.Address{}, repository.ErrNotFound
}

func (m *memAddresses) ListByUserID(ctx context.Context, userID int64) ([]domain.Address, error) {
	var out []domain.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAddresses) Delete(ctx context.Context, addressID int64) error {
	if _, ok := m.addresses[addressID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.addresses, addressID)
	return nil
}

type memPaymentCards memStore

func (m *memPaymentCards) Upsert(ctx context.Context, card domain.PaymentCard) (domain.PaymentCard, error) {
	for id, existing := range m.paymentCards {
		if existing.UserID == card.UserID {
			card.ID = id
			m.paymentCards[id] = card
			return card, nil
		}
	}
	card.ID = (*memStore)(m).id()
	m.paymentCards[card.ID] = card
	return card, nil
}

func (m *memPaymentCards) FindByUserID(ctx context.Context, userID int64) (domain.PaymentCard, error) {
	for _, c := range m.paymentCards {
		if c.UserID == userID {
			return c, nil
		}
	}
	return domain.PaymentCard{}, repository.ErrNotFound
}

func (m *memPaymentCards) FindByID(ctx context.Context, cardID int64) (domain.PaymentCard, error) {
	c, ok := m.paymentCards[cardID]
	if !ok {
		return domain.PaymentCard{}, repository.ErrNotFound
	}
	return c, nil
}

type memCheckouts memStore

func (m *memCheckouts) Create(ctx context.Context, userID, cartID int64) (domain.CheckoutSession, error) {
	for _, s := range m.checkouts {
		if s.UserID == userID {
			return domain.CheckoutSession{}, fmt.Errorf("checkout_sessions_user_key: %w", repository.ErrConflict)
		}
	}
	s := domain.CheckoutSession{
		ID:     (*memStore)(m).id(),
		UserID: userID,
		CartID: cartID,
		Stage:  domain.StageShipping,
	}
	m.checkouts[s.ID] = s
	return s, nil
}

func (m *memCheckouts) FindByUserID(ctx context.Context, userID int64) (domain.CheckoutSession, error) {
	for _, s := range m.checkouts {
		if s.UserID == userID {
			return s, nil
		}
	}
	return domain.CheckoutSession{}, repository.ErrNotFound
}

func (m *memCheckouts) UpdateStage(ctx context.Context, sessionID int64, stage domain.CheckoutStage) error {
	s, ok := m.checkouts[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	s.Stage = stage
	m.checkouts[sessionID] = s
	return nil
}

func (m *memCheckouts) UpdateShippingAddress(ctx context.Context, sessionID, addressID int64) error {
	s, ok := m.checkouts[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	s.ShippingAddressID = &addressID
	m.checkouts[sessionID] = s
	return nil
}

func (m *memCheckouts) UpdateBillingAddress(ctx context.Context, sessionID, addressID int64) error {
	s, ok := m.checkouts[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	s.BillingAddressID = &addressID
	m.checkouts[sessionID] = s
	return nil
}

func (m *memCheckouts) UpdatePaymentCard(ctx context.Context, sessionID, cardID int64) error {
	s, ok := m.checkouts[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	s.PaymentCardID = &cardID
	m.checkouts[sessionID] = s
	return nil
}

func (m *memCheckouts) Delete(ctx context.Context, sessionID int64) error {
	delete(m.checkouts, sessionID)
	return nil
}

type memOrders memStore

func (m *memOrders) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	o.ID = (*memStore)(m).id()
	o.CreatedAt = time.Now()
	m.orders[o.ID] = o
	return o, nil
}

func (m *memOrders) CreateLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	for i := range lines {
		lines[i].ID = (*memStore)(m).id()
		lines[i].OrderID = orderID
	}
	m.orderLines[orderID] = lines
	return nil
}

func (m *memOrders) FindByID(ctx context.Context, userID, orderID int64) (domain.Order, error) {
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return domain.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) LinesByOrderID(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	return m.orderLines[orderID], nil
}

func (m *memOrders) ListByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}
