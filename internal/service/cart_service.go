package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/cart-store/internal/domain"
	"github.com/fjod/go_cart/cart-store/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Snapshot is the cart as seen by subscribers. Version grows by one for every
// applied change, so consumers can drop out-of-order deliveries.
type Snapshot struct {
	Version  uint64      `json:"version"`
	Products domain.Cart `json:"products"`
}

type Listener func(Snapshot)

type Option func(*CartService)

// WithKey overrides the storage key the cart snapshot is kept under.
func WithKey(key string) Option {
	return func(s *CartService) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *CartService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// CartService holds the cart in memory and writes the whole cart to storage
// after every change. It is safe for concurrent use.
type CartService struct {
	storage storage.Storage
	key     string
	logger  *zap.Logger
	sfg     singleflight.Group // one storage read for concurrent Load calls

	mu       sync.Mutex
	products domain.Cart
	version  uint64
	loaded   bool

	listenersMu  sync.RWMutex
	listeners    map[uint64]Listener
	nextListener uint64
}

func NewCartService(store storage.Storage, opts ...Option) *CartService {
	s := &CartService{
		storage:   store,
		key:       storage.DefaultKey,
		logger:    zap.NewNop(),
		products:  domain.Cart{},
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("storage_key", s.key))
	return s
}

// Load reads the persisted cart once. A missing snapshot leaves the cart empty.
// Read and decode failures also leave it empty and are returned; Load is not
// retried afterwards. Mutations call Load first, so no change is ever applied
// on top of a cart that has not been read yet.
func (s *CartService) Load(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}

	_, err, _ := s.sfg.Do(s.key, func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *CartService) load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	cart, err := s.readSnapshot(ctx)

	s.mu.Lock()
	s.loaded = true
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("cart load failed, starting empty", zap.Error(err))
		return err
	}
	if cart == nil {
		s.mu.Unlock()
		s.logger.Debug("no persisted cart")
		return nil
	}
	s.products = cart
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("cart loaded", zap.Int("items", len(cart)))
	s.notify(snap)
	return nil
}

func (s *CartService) readSnapshot(ctx context.Context) (domain.Cart, error) {
	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}

	cart, err := domain.UnmarshalCart(data)
	if err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return cart, nil
}

// Products returns a copy of the cart in display order.
func (s *CartService) Products() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products.Clone()
}

func (s *CartService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AddToCart appends the product with quantity 1, or bumps its quantity when the
// id is already in the cart.
func (s *CartService) AddToCart(ctx context.Context, item domain.NewProduct) error {
	if item.ID == "" {
		return ErrInvalidProduct
	}
	return s.mutate(ctx, "add", item.ID, func(cart domain.Cart) (domain.Cart, bool, error) {
		if i := cart.Index(item.ID); i >= 0 {
			cart[i].Quantity++
			return cart, true, nil
		}
		return append(cart, item.WithQuantity(1)), true, nil
	})
}

// Increment is a no-op for ids that are not in the cart.
func (s *CartService) Increment(ctx context.Context, id string) error {
	return s.mutate(ctx, "increment", id, func(cart domain.Cart) (domain.Cart, bool, error) {
		i := cart.Index(id)
		if i < 0 {
			return cart, false, nil
		}
		cart[i].Quantity++
		return cart, true, nil
	})
}

// Decrement drops the product from the cart once its quantity would reach zero.
func (s *CartService) Decrement(ctx context.Context, id string) error {
	return s.mutate(ctx, "decrement", id, func(cart domain.Cart) (domain.Cart, bool, error) {
		i := cart.Index(id)
		if i < 0 {
			return cart, false, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		if cart[i].Quantity <= 1 {
			return removeAt(cart, i), true, nil
		}
		cart[i].Quantity--
		return cart, true, nil
	})
}

// Remove is a no-op for ids that are not in the cart.
func (s *CartService) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove", id, func(cart domain.Cart) (domain.Cart, bool, error) {
		i := cart.Index(id)
		if i < 0 {
			return cart, false, nil
		}
		return removeAt(cart, i), true, nil
	})
}

func removeAt(cart domain.Cart, i int) domain.Cart {
	return append(cart[:i], cart[i+1:]...)
}

type mutation func(cart domain.Cart) (domain.Cart, bool, error)

// mutate applies fn to a copy of the cart and persists exactly the value it
// returned. The write happens under the lock so snapshots reach storage in the
// same order the changes were applied.
func (s *CartService) mutate(ctx context.Context, op, id string, fn mutation) error {
	// a failed read is already logged; the change goes on top of an empty cart
	_ = s.Load(ctx)

	s.mu.Lock()
	next, changed, err := fn(s.products.Clone())
	if err != nil || !changed {
		s.mu.Unlock()
		return err
	}
	s.products = next
	s.version++
	snap := s.snapshotLocked()
	persistErr := s.persist(ctx, next)
	s.mu.Unlock()

	s.notify(snap)

	if persistErr != nil {
		s.logger.Error("cart persist failed",
			zap.String("op", op),
			zap.String("product_id", id),
			zap.Uint64("version", snap.Version),
			zap.Error(persistErr),
		)
		return persistErr
	}
	s.logger.Debug("cart updated",
		zap.String("op", op),
		zap.String("product_id", id),
		zap.Uint64("version", snap.Version),
		zap.Int("items", len(next)),
	)
	return nil
}

func (s *CartService) persist(ctx context.Context, cart domain.Cart) error {
	data, err := domain.MarshalCart(cart)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *CartService) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Products: s.products.Clone()}
}

// Subscribe registers fn for every change to the cart. The returned func
// unregisters it. Listeners run on the goroutine that made the change, after
// the store lock is released, and receive their own copy of the cart.
func (s *CartService) Subscribe(fn Listener) (cancel func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *CartService) notify(snap Snapshot) {
	s.listenersMu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(Snapshot{Version: snap.Version, Products: snap.Products.Clone()})
	}
}
