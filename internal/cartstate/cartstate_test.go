package cartstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-kit/internal/domain"
)

type stubOps struct {
	mu       sync.Mutex
	created  int
	gets     []string
	calls    []string
	getErr   error
	opErr    error
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func cartWith(id string, total float64, quantities ...int) *domain.Cart {
	c := &domain.Cart{ID: id, Cost: domain.CartCost{TotalAmount: &domain.Money{Amount: total, CurrencyCode: "EUR"}}}
	for i, q := range quantities {
		c.Lines = append(c.Lines, domain.CartLine{ID: fmt.Sprintf("line-%d", i+1), Quantity: q})
	}
	return c
}

func (s *stubOps) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	n := atomic.AddInt32(&s.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&s.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&s.maxSeen, seen, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	atomic.AddInt32(&s.inFlight, -1)
}

func (s *stubOps) Create(context.Context, []domain.Attribute) (*domain.Cart, error) {
	s.mu.Lock()
	s.created++
	id := fmt.Sprintf("new-%d", s.created)
	s.mu.Unlock()
	return cartWith(id, 0), nil
}

func (s *stubOps) Get(_ context.Context, cartID string) (*domain.Cart, error) {
	s.mu.Lock()
	s.gets = append(s.gets, cartID)
	s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return cartWith(cartID, 25.5, 2, 3), nil
}

func (s *stubOps) AddLines(_ context.Context, cartID string, lines []domain.CartLineInput) (*domain.Cart, error) {
	s.record("add:" + cartID)
	if s.opErr != nil {
		return nil, s.opErr
	}
	return cartWith(cartID, 40, 2, 3, lines[0].Quantity), nil
}

func (s *stubOps) RemoveLine(_ context.Context, cartID, lineID string) (*domain.Cart, error) {
	s.record("remove:" + lineID)
	return cartWith(cartID, 10, 1), nil
}

func (s *stubOps) UpdateLine(_ context.Context, cartID, lineID string, quantity int) (*domain.Cart, error) {
	s.record(fmt.Sprintf("update:%s:%d", lineID, quantity))
	return cartWith(cartID, 12, quantity), nil
}

func (s *stubOps) ApplyDiscount(_ context.Context, cartID string, codes ...string) (*domain.Cart, error) {
	s.record("discount:" + codes[0])
	return cartWith(cartID, 20, 2, 3), nil
}

func (s *stubOps) RemoveDiscount(_ context.Context, cartID string) (*domain.Cart, error) {
	s.record("undiscount")
	return cartWith(cartID, 25.5, 2, 3), nil
}

func (s *stubOps) Empty(_ context.Context, cartID string) (*domain.Cart, error) {
	s.record("empty")
	return cartWith(cartID, 0), nil
}

func (s *stubOps) Merge(_ context.Context, source, destination string) (*domain.Cart, error) {
	s.record("merge:" + source + ">" + destination)
	return cartWith(destination, 50, 2, 3, 4), nil
}

func (s *stubOps) UpdateBuyerIdentity(_ context.Context, cartID string, identity domain.BuyerIdentityInput) (*domain.Cart, error) {
	s.record("identity:" + identity.Email)
	return cartWith(cartID, 25.5, 2, 3), nil
}

func (s *stubOps) UpdateAttributes(_ context.Context, cartID string, attrs []domain.Attribute) (*domain.Cart, error) {
	s.record("attrs:" + attrs[0].Key)
	return cartWith(cartID, 25.5, 2, 3), nil
}

func TestActivate_LoadsPersistedCart(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{}
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, CartIDKey, "cart-1"))

	s := New(ops, store, nil, nil)
	require.NoError(t, s.Activate(ctx))

	state := s.State()
	assert.Equal(t, "cart-1", state.Cart.ID)
	assert.Equal(t, 5, state.TotalCount)
	assert.Equal(t, 25.5, state.TotalPrice)
	assert.False(t, state.Loading)
	assert.Zero(t, ops.created)
}

func TestActivate_CreatesAndPersistsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{}
	store := NewMemoryStore()

	s := New(ops, store, nil, nil)
	require.NoError(t, s.Activate(ctx))

	assert.Equal(t, "new-1", s.Cart().ID)
	assert.Empty(t, ops.gets)
	stored, _ := store.Get(ctx, CartIDKey)
	assert.Equal(t, "new-1", stored)
}

func TestActivate_CreatesWhenPersistedCartIsGone(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{getErr: errors.New("cart missing from response")}
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, CartIDKey, "expired"))

	s := New(ops, store, nil, nil)
	require.NoError(t, s.Activate(ctx))

	assert.Equal(t, []string{"expired"}, ops.gets)
	assert.Equal(t, "new-1", s.Cart().ID)
	stored, _ := store.Get(ctx, CartIDKey)
	assert.Equal(t, "new-1", stored)
}

func TestMutations_RequireCart(t *testing.T) {
	ops := &stubOps{}
	s := New(ops, NewMemoryStore(), nil, nil)

	_, err := s.AddProducts(context.Background(), []domain.CartLineInput{{MerchandiseID: "v", Quantity: 1}})
	assert.ErrorIs(t, err, ErrNoCart)
	_, err = s.EmptyCart(context.Background())
	assert.ErrorIs(t, err, ErrNoCart)
	assert.Empty(t, ops.calls)
}

func TestMutations_ReplaceCartAndTotals(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{}
	s := New(ops, NewMemoryStore(), nil, nil)
	require.NoError(t, s.Activate(ctx))
	id := s.Cart().ID

	_, err := s.AddProducts(ctx, []domain.CartLineInput{{MerchandiseID: "v", Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, 9, s.State().TotalCount)
	assert.Equal(t, 40.0, s.State().TotalPrice)

	_, err = s.UpdateQuantity(ctx, "line-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, s.State().TotalCount)

	_, err = s.RemoveProduct(ctx, "line-1")
	require.NoError(t, err)
	_, err = s.ApplyDiscountCode(ctx, "SAVE10")
	require.NoError(t, err)
	_, err = s.RemoveDiscountCode(ctx)
	require.NoError(t, err)
	_, err = s.UpdateBuyerIdentity(ctx, domain.BuyerIdentityInput{Email: "a@b.c"})
	require.NoError(t, err)
	_, err = s.UpdateCartAttributes(ctx, []domain.Attribute{{Key: "gift", Value: "true"}})
	require.NoError(t, err)
	_, err = s.MergeCarts(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, 9, s.State().TotalCount)

	_, err = s.EmptyCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.State().TotalCount)
	assert.Equal(t, 0.0, s.State().TotalPrice)

	assert.Equal(t, []string{
		"add:" + id, "update:line-1:7", "remove:line-1", "discount:SAVE10", "undiscount",
		"identity:a@b.c", "attrs:gift", "merge:guest>" + id, "empty",
	}, ops.calls)
}

func TestMutation_FailureKeepsCartAndClearsBusy(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{}
	s := New(ops, NewMemoryStore(), nil, nil)
	require.NoError(t, s.Activate(ctx))
	before := s.Cart()

	ops.opErr = errors.New("boom")
	_, err := s.AddProducts(ctx, []domain.CartLineInput{{MerchandiseID: "v", Quantity: 1}})
	require.Error(t, err)
	assert.Same(t, before, s.Cart())
	assert.False(t, s.State().Loading)
}

func TestReset_CreatesAndPersistsNewCart(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{}
	store := NewMemoryStore()
	s := New(ops, store, nil, nil)
	require.NoError(t, s.Activate(ctx))

	cart, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-2", cart.ID)
	stored, _ := store.Get(ctx, CartIDKey)
	assert.Equal(t, "new-2", stored)
}

// gatedOps parks the chosen calls until release is closed.
type gatedOps struct {
	*stubOps
	parkCreate bool
	parkAdd    bool
	entered    chan struct{}
	release    chan struct{}
	once       sync.Once
}

func newGatedOps() *gatedOps {
	return &gatedOps{stubOps: &stubOps{}, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedOps) park() {
	g.once.Do(func() { close(g.entered) })
	<-g.release
}

func (g *gatedOps) Create(ctx context.Context, attrs []domain.Attribute) (*domain.Cart, error) {
	if g.parkCreate {
		g.park()
	}
	return g.stubOps.Create(ctx, attrs)
}

func (g *gatedOps) AddLines(ctx context.Context, cartID string, lines []domain.CartLineInput) (*domain.Cart, error) {
	if g.parkAdd {
		g.park()
	}
	return g.stubOps.AddLines(ctx, cartID, lines)
}

func TestReset_WaitsForInFlightMutation(t *testing.T) {
	ctx := context.Background()
	ops := newGatedOps()
	store := NewMemoryStore()
	s := New(ops, store, nil, nil)
	require.NoError(t, s.Activate(ctx))
	ops.parkAdd = true

	added := make(chan *domain.Cart, 1)
	go func() {
		cart, err := s.AddProducts(ctx, []domain.CartLineInput{{MerchandiseID: "v", Quantity: 1}})
		assert.NoError(t, err)
		added <- cart
	}()
	<-ops.entered

	reset := make(chan *domain.Cart, 1)
	go func() {
		cart, err := s.Reset(ctx)
		assert.NoError(t, err)
		reset <- cart
	}()
	select {
	case <-reset:
		t.Fatal("reset finished while a mutation was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(ops.release)
	assert.Equal(t, "new-1", (<-added).ID)
	assert.Equal(t, "new-2", (<-reset).ID)

	stored, err := store.Get(ctx, CartIDKey)
	require.NoError(t, err)
	assert.Equal(t, stored, s.Cart().ID)
	assert.Equal(t, "new-2", stored)
}

func TestMutations_SerializedPerCart(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{delay: 5 * time.Millisecond}
	locks := NewKeyedMutex()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, CartIDKey, "shared"))

	a := New(ops, store, locks, nil)
	b := New(ops, store, locks, nil)
	require.NoError(t, a.Activate(ctx))
	require.NoError(t, b.Activate(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		target := a
		if i%2 == 1 {
			target = b
		}
		go func() {
			defer wg.Done()
			_, err := target.AddProducts(ctx, []domain.CartLineInput{{MerchandiseID: "v", Quantity: 1}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, ops.calls, 8)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ops.maxSeen))
	assert.Zero(t, locks.Len())
}

func TestKeyedMutex_HonoursContext(t *testing.T) {
	locks := NewKeyedMutex()
	unlock, err := locks.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locks.Lock(context.Background(), "other")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	assert.Zero(t, locks.Len())
}

type memoryValues struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryValues) Get(_ context.Context, sessionID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[sessionID+"/"+key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *memoryValues) Put(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[sessionID+"/"+key] = value
	return nil
}

func TestManager_OneSynchronizerPerSession(t *testing.T) {
	ctx := context.Background()
	ops := &stubOps{}
	values := &memoryValues{values: map[string]string{}}
	m, err := NewManager(ops, values, 2, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Synchronizer, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.For(ctx, "session-a")
			assert.NoError(t, err)
			results[i] = s
		}()
	}
	wg.Wait()
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, ops.created)
	assert.Equal(t, "new-1", values.values["session-a/"+CartIDKey])

	m.Forget("session-a")
	again, err := m.For(ctx, "session-a")
	require.NoError(t, err)
	assert.NotSame(t, results[0], again)
	assert.Equal(t, "new-1", again.Cart().ID)
	assert.Equal(t, 1, ops.created)
	assert.Equal(t, 1, m.Len())
}

func TestManager_ActivationSurvivesFirstCallerCancel(t *testing.T) {
	ops := newGatedOps()
	ops.parkCreate = true
	values := &memoryValues{values: map[string]string{}}
	m, err := NewManager(ops, values, 2, nil)
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.For(firstCtx, "session-a")
		firstErr <- err
	}()
	<-ops.entered

	second := make(chan *Synchronizer, 1)
	go func() {
		s, err := m.For(context.Background(), "session-a")
		assert.NoError(t, err)
		second <- s
	}()
	time.Sleep(30 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(ops.release)
	s := <-second
	require.NotNil(t, s)
	assert.Equal(t, "new-1", s.Cart().ID)
	assert.Equal(t, 1, ops.created)
	assert.Equal(t, "new-1", values.values["session-a/"+CartIDKey])
}

func TestState_UnparseableTotalEncodes(t *testing.T) {
	count, price := totals(cartWith("c", math.NaN(), 2))
	assert.Equal(t, 2, count)
	assert.Zero(t, price)

	b, err := json.Marshal(State{Cart: cartWith("c", math.NaN(), 2), TotalCount: count, TotalPrice: price})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"amount":null`)
}
