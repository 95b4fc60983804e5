// Package cartstate keeps one client-held cart in step with server
// mutations. Mutations against the same cart id are serialized.
package cartstate

import (
	"context"
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"storefront-kit/internal/domain"
)

// ErrNoCart is returned by mutations before a cart has been activated.
var ErrNoCart = errors.New("no active cart")

// Operations is the cart API a synchronizer drives.
type Operations interface {
	Create(ctx context.Context, attrs []domain.Attribute) (*domain.Cart, error)
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	AddLines(ctx context.Context, cartID string, lines []domain.CartLineInput) (*domain.Cart, error)
	RemoveLine(ctx context.Context, cartID, lineID string) (*domain.Cart, error)
	UpdateLine(ctx context.Context, cartID, lineID string, quantity int) (*domain.Cart, error)
	ApplyDiscount(ctx context.Context, cartID string, codes ...string) (*domain.Cart, error)
	RemoveDiscount(ctx context.Context, cartID string) (*domain.Cart, error)
	Empty(ctx context.Context, cartID string) (*domain.Cart, error)
	Merge(ctx context.Context, sourceCartID, destinationCartID string) (*domain.Cart, error)
	UpdateBuyerIdentity(ctx context.Context, cartID string, identity domain.BuyerIdentityInput) (*domain.Cart, error)
	UpdateAttributes(ctx context.Context, cartID string, attrs []domain.Attribute) (*domain.Cart, error)
}

// State is a point-in-time view of a synchronizer.
type State struct {
	Cart       *domain.Cart `json:"cart"`
	Loading    bool         `json:"loading"`
	TotalCount int          `json:"totalCount"`
	TotalPrice float64      `json:"totalPrice"`
}

type Synchronizer struct {
	ops    Operations
	store  Store
	locks  *KeyedMutex
	logger *zap.Logger

	// op admits one of activate, reset or a mutation at a time so the held
	// cart and the persisted id never diverge.
	op *semaphore.Weighted

	mu         sync.RWMutex
	cart       *domain.Cart
	busy       bool
	totalCount int
	totalPrice float64
}

// New builds a synchronizer. locks may be shared between synchronizers so
// that two sessions holding the same cart id never mutate it concurrently.
func New(ops Operations, store Store, locks *KeyedMutex, logger *zap.Logger) *Synchronizer {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{ops: ops, store: store, locks: locks, logger: logger, op: semaphore.NewWeighted(1)}
}

func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Cart: s.cart, Loading: s.busy, TotalCount: s.totalCount, TotalPrice: s.totalPrice}
}

func (s *Synchronizer) Cart() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// Activate loads the persisted cart, or creates and persists a new one when
// no id is stored or the stored id no longer resolves to a cart.
func (s *Synchronizer) Activate(ctx context.Context) error {
	if err := s.op.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.op.Release(1)
	s.setBusy(true)
	defer s.setBusy(false)

	storedID, err := s.store.Get(ctx, CartIDKey)
	if err != nil {
		s.logger.Warn("read persisted cart id failed", zap.Error(err))
		storedID = ""
	}
	if storedID != "" {
		cart, err := s.ops.Get(ctx, storedID)
		if err == nil && cart != nil && cart.ID != "" {
			s.replace(cart)
			return nil
		}
		s.logger.Warn("persisted cart unavailable, creating a new one",
			zap.String("cartId", storedID), zap.Error(err))
	}
	return s.createAndPersist(ctx)
}

// Reset replaces the held cart with a newly created one. It waits for an
// in-flight mutation to finish first.
func (s *Synchronizer) Reset(ctx context.Context) (*domain.Cart, error) {
	if err := s.op.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.op.Release(1)
	s.setBusy(true)
	defer s.setBusy(false)
	if err := s.createAndPersist(ctx); err != nil {
		return nil, err
	}
	return s.Cart(), nil
}

func (s *Synchronizer) createAndPersist(ctx context.Context) error {
	cart, err := s.ops.Create(ctx, nil)
	if err != nil {
		s.logger.Error("cart init failed", zap.Error(err))
		return err
	}
	if err := s.store.Set(ctx, CartIDKey, cart.ID); err != nil {
		return err
	}
	s.replace(cart)
	return nil
}

// AddProducts adds lines as given. A merchandise id already in the cart is
// added again rather than merged into the existing line's quantity.
func (s *Synchronizer) AddProducts(ctx context.Context, lines []domain.CartLineInput) (*domain.Cart, error) {
	return s.mutate(ctx, func(ctx context.Context, cartID string) (*domain.Cart, error) {
		return s.ops.AddLines(ctx, cartID, lines)
	})
}

func (s *Synchronizer) RemoveProduct(ctx context.Context, lineID string) (*domain.Cart, error) {
	return s.mutate(ctx, func(ctx context.Context, cartID string) (*domain.Cart, error) {
		return s.ops.RemoveLine(ctx, cartID, lineID)
	})
}

func (s *Synchronizer) UpdateQuantity(ctx context.Context, lineID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, func(ctx context.Context, cartID string) (*domain.Cart, error) {
		return s.ops.UpdateLine(ctx, cartID, lineID, quantity)
	})
}

func (s *Synchronizer) ApplyDiscountCode(ctx context.Context, code string) (*domain.Cart, error) {
	return s.mutate(ctx, func(ctx context.Context, cartID string) (*domain.Cart, error) {
		return s.ops.ApplyDiscount(ctx, cartID, code)
	})
}

func (s *Synchronizer) RemoveDiscountCode(ctx context.Context) (*domain.Cart, error) {
	return s.mutate(ctx, s.ops.RemoveDiscount)
}

func (s *Synchronizer) EmptyCart(ctx context.Context) (*domain.Cart, error) {
	return s.mutate(ctx, s.ops.Empty)
}

// MergeCarts merges sourceCartID into the held cart.
func (s *Synchronizer) MergeCarts(ctx context.Context, sourceCartID string) (*domain.Cart, error) {
	return s.mutate(ctx, func(ctx context.Context, cartID string) (*domain.Cart, error) {
		return s.ops.Merge(ctx, sourceCartID, cartID)
	})
}

func (s *Synchronizer) UpdateBuyerIdentity(ctx context.Context, identity domain.BuyerIdentityInput) (*domain.Cart, error) {
	return s.mutate(ctx, func(ctx context.Context, cartID string) (*domain.Cart, error) {
		return s.ops.UpdateBuyerIdentity(ctx, cartID, identity)
	})
}

func (s *Synchronizer) UpdateCartAttributes(ctx context.Context, attrs []domain.Attribute) (*domain.Cart, error) {
	return s.mutate(ctx, func(ctx context.Context, cartID string) (*domain.Cart, error) {
		return s.ops.UpdateAttributes(ctx, cartID, attrs)
	})
}

func (s *Synchronizer) mutate(ctx context.Context, op func(context.Context, string) (*domain.Cart, error)) (*domain.Cart, error) {
	if err := s.op.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.op.Release(1)
	current := s.Cart()
	if current == nil {
		return nil, ErrNoCart
	}
	unlock, err := s.locks.Lock(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.setBusy(true)
	defer s.setBusy(false)

	updated, err := op(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrCartMissing
	}
	s.replace(updated)
	return updated, nil
}

func (s *Synchronizer) replace(cart *domain.Cart) {
	count, price := totals(cart)
	s.mu.Lock()
	s.cart = cart
	s.totalCount = count
	s.totalPrice = price
	s.mu.Unlock()
}

func (s *Synchronizer) setBusy(busy bool) {
	s.mu.Lock()
	s.busy = busy
	s.mu.Unlock()
}

func totals(cart *domain.Cart) (int, float64) {
	if cart == nil {
		return 0, 0
	}
	var price float64
	if amount := cart.Cost.TotalAmount; amount != nil && !math.IsNaN(amount.Amount) && !math.IsInf(amount.Amount, 0) {
		price = amount.Amount
	}
	return cart.TotalLineQuantity(), price
}
