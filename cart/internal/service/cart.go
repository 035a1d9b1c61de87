package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/event"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metric"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
)

const (
	OperationGet       = "get"
	OperationAdd       = "add"
	OperationDecrement = "decrement"
	OperationRemove    = "remove"
	OperationReset     = "reset"
	OperationCheckout  = "checkout"
)

type Catalog interface {
	FindProductById(c context.Context, id uuid.UUID) (store.Product, error)
}

type Snapshots interface {
	Save(c context.Context, userID uuid.UUID, data []byte) error
	Load(c context.Context, userID uuid.UUID) ([]byte, error)
	Delete(c context.Context, userID uuid.UUID) error
}

type Publisher interface {
	PublishCartCheckedOut(c context.Context, ev event.CartCheckedOut) error
}

type TxBeginner interface {
	Begin(c context.Context) (pgx.Tx, error)
}

// session owns the Store of one signed-in user; mu serialises every operation on it.
// A session dropped from the map is marked evicted so callers that were waiting on mu
// move on to a fresh one.
type session struct {
	mu         sync.Mutex
	store      *store.Store
	restored   bool
	evicted    bool
	unsaved    bool
	lastAccess time.Time
}

type CartService struct {
	pool      TxBeginner
	queries   *repository.Queries
	catalog   Catalog
	snapshots Snapshots
	publisher Publisher
	metrics   *metric.CartMetrics
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewCartService builds the service. Sessions untouched for idleTTL are released by
// EvictIdle; a zero idleTTL keeps them until the cart is reset or checked out.
func NewCartService(
	pool TxBeginner,
	queries *repository.Queries,
	catalog Catalog,
	snapshots Snapshots,
	publisher Publisher,
	metrics *metric.CartMetrics,
	idleTTL time.Duration,
) *CartService {
	return &CartService{
		pool:      pool,
		queries:   queries,
		catalog:   catalog,
		snapshots: snapshots,
		publisher: publisher,
		metrics:   metrics,
		idleTTL:   idleTTL,
		now:       time.Now,
		sessions:  map[uuid.UUID]*session{},
	}
}

func (svc *CartService) GetCart(c context.Context, userID uuid.UUID) (cart response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()
	defer func() { svc.metrics.Observe(OperationGet, err) }()

	err = svc.withSession(c, userID, false, func(s *store.Store) error {
		cart = cartResponse(userID, s.Items())
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		return response.Cart{}, err
	}
	return cart, nil
}

func (svc *CartService) AddItem(
	c context.Context,
	userID uuid.UUID,
	productID uuid.UUID,
) (cart response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()
	defer func() { svc.metrics.Observe(OperationAdd, err) }()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProductID, productID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product in catalog").Logger()
	logger.Trace().Msg("finding product in catalog")
	c = logger.WithContext(c)
	product, err := svc.catalog.FindProductById(c, productID)
	if err != nil {
		err = fmt.Errorf("failed finding product in catalog with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Msg("found product in catalog")

	logger = logger.With().Str(log.KeyProcess, "adding item to cart").Logger()
	err = svc.withSession(c, userID, true, func(s *store.Store) error {
		cart = cartResponse(userID, s.AddItem(product))
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Int64(log.KeyCartItemsCount, cart.ItemCount).Msg("added item to cart")

	return cart, nil
}

func (svc *CartService) DecrementItem(
	c context.Context,
	userID uuid.UUID,
	productID uuid.UUID,
) (cart response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService DecrementItem")
	defer span.End()
	defer func() { svc.metrics.Observe(OperationDecrement, err) }()

	err = svc.withSession(c, userID, true, func(s *store.Store) error {
		cart = cartResponse(userID, s.DecrementItem(productID))
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		return response.Cart{}, err
	}
	return cart, nil
}

func (svc *CartService) RemoveItem(
	c context.Context,
	userID uuid.UUID,
	productID uuid.UUID,
) (cart response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()
	defer func() { svc.metrics.Observe(OperationRemove, err) }()

	err = svc.withSession(c, userID, true, func(s *store.Store) error {
		cart = cartResponse(userID, s.RemoveItem(productID))
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		return response.Cart{}, err
	}
	return cart, nil
}

// ResetCart ends the session: the cart is emptied and its snapshot dropped.
func (svc *CartService) ResetCart(c context.Context, userID uuid.UUID) (err error) {
	c, span := otel.Tracer.Start(c, "CartService ResetCart")
	defer span.End()
	defer func() { svc.metrics.Observe(OperationReset, err) }()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ResetCart").
		Str(log.KeyUserID, userID.String()).
		Logger()

	s := svc.acquire(userID)
	defer s.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "deleting cart snapshot").Logger()
	c = logger.WithContext(c)
	if err = svc.snapshots.Delete(c, userID); err != nil {
		err = fmt.Errorf("failed deleting cart snapshot with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	s.store.Reset()
	svc.drop(userID, s)
	logger.Info().Msg("reset cart")

	return nil
}

// Checkout records the cart, announces it on the broker and empties it. The checkout row
// is committed before the event goes out; when publishing fails the row is deleted again
// and the cart is left untouched.
func (svc *CartService) Checkout(c context.Context, userID uuid.UUID) (checkout response.Checkout, err error) {
	c, span := otel.Tracer.Start(c, "CartService Checkout")
	defer span.End()
	defer func() { svc.metrics.Observe(OperationCheckout, err) }()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Checkout").
		Str(log.KeyUserID, userID.String()).
		Logger()

	s, err := svc.open(c, userID)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	defer s.mu.Unlock()

	items := s.store.Items()
	if len(items) == 0 {
		err = inErrors.ErrEmptyCart
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}

	c = logger.WithContext(c)
	checkout, err = svc.record(c, userID, cartResponse(userID, items))
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	s.store.Reset()

	logger = logger.With().
		Str(log.KeyCheckoutID, checkout.ID.String()).
		Str(log.KeyProcess, "deleting cart snapshot").
		Logger()
	if err := svc.snapshots.Delete(logger.WithContext(c), userID); err != nil {
		// the emptied session stays in memory so the old snapshot is never restored
		s.unsaved = true
		err = fmt.Errorf("failed deleting cart snapshot with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		svc.drop(userID, s)
	}
	logger.Info().Msg("checked out cart")

	return checkout, nil
}

// record stores the checkout row and publishes the checkout event once the row is
// committed.
func (svc *CartService) record(
	c context.Context,
	userID uuid.UUID,
	cart response.Cart,
) (response.Checkout, error) {
	checkoutID := uuid.New()
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService record").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyCheckoutID, checkoutID.String()).
		Str(log.KeyCartTotal, cart.Total.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "marshaling cart items").Logger()
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return response.Checkout{}, fmt.Errorf("failed marshaling cart items with error=%w", err)
	}

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Trace().Msg("beginning transaction")
	tx, err := svc.pool.Begin(c)
	if err != nil {
		return response.Checkout{}, fmt.Errorf("failed beginning transaction with error=%w", err)
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Error().Err(err).Msg("failed rolling back transaction")
		}
	}()

	logger = logger.With().Str(log.KeyProcess, "inserting checkout to database").Logger()
	logger.Trace().Msg("inserting checkout to database")
	record, err := svc.queries.WithTx(tx).InsertCheckout(c, repository.InsertCheckoutParams{
		ID:     checkoutID,
		UserID: userID,
		Items:  itemsJSON,
		Total:  cart.Total,
	})
	if err != nil {
		return response.Checkout{}, fmt.Errorf("failed inserting checkout with error=%w", err)
	}
	logger.Trace().Msg("inserted checkout to database")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	if err = tx.Commit(c); err != nil {
		return response.Checkout{}, fmt.Errorf("failed committing checkout with error=%w", err)
	}
	logger.Trace().Msg("committed transaction")

	logger = logger.With().Str(log.KeyProcess, "publishing checkout event").Logger()
	err = svc.publisher.PublishCartCheckedOut(
		logger.WithContext(c),
		checkedOutEvent(record.ID, userID, record.CreatedAt, cart),
	)
	if err != nil {
		err = fmt.Errorf("failed publishing checkout event with error=%w", err)
		logger = logger.With().Str(log.KeyProcess, "deleting unpublished checkout").Logger()
		if delErr := svc.queries.DeleteCheckout(c, record.ID); delErr != nil {
			delErr = fmt.Errorf("failed deleting unpublished checkout with error=%w", delErr)
			logger.Error().Err(delErr).Msg(delErr.Error())
			return response.Checkout{}, errors.Join(err, delErr)
		}
		logger.Trace().Msg("deleted unpublished checkout")
		return response.Checkout{}, err
	}
	logger.Trace().Msg("published checkout event")

	return response.Checkout{
		ID:        record.ID,
		UserID:    userID,
		Items:     cart.Items,
		Total:     cart.Total,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (svc *CartService) FindCheckouts(c context.Context, userID uuid.UUID) ([]response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CartService FindCheckouts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService FindCheckouts").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProcess, "finding checkouts in database").
		Logger()

	logger.Trace().Msg("finding checkouts in database")
	records, err := svc.queries.FindCheckoutsByUserId(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding checkouts with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	checkouts := make([]response.Checkout, 0, len(records))
	for _, record := range records {
		checkout, err := record.Response()
		if err != nil {
			err = fmt.Errorf("failed decoding checkoutId=%s with error=%w", record.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		checkouts = append(checkouts, checkout)
	}
	logger.Trace().Int("count", len(checkouts)).Msg("found checkouts in database")

	return checkouts, nil
}

func (svc *CartService) session(userID uuid.UUID) *session {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	s, ok := svc.sessions[userID]
	if !ok {
		s = &session{store: store.New()}
		svc.sessions[userID] = s
	}
	return s
}

// acquire returns the user's live session with mu held.
func (svc *CartService) acquire(userID uuid.UUID) *session {
	for {
		s := svc.session(userID)
		s.mu.Lock()
		if !s.evicted {
			s.lastAccess = svc.now()
			return s
		}
		s.mu.Unlock()
	}
}

// open is acquire plus restoring the persisted snapshot on first use. On error mu is
// already released.
func (svc *CartService) open(c context.Context, userID uuid.UUID) (*session, error) {
	s := svc.acquire(userID)
	if s.restored {
		return s, nil
	}
	if err := svc.restore(c, userID, s.store); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.restored = true
	return s, nil
}

// drop removes a session whose mu is held by the caller.
func (svc *CartService) drop(userID uuid.UUID, s *session) {
	s.evicted = true
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.sessions[userID] == s {
		delete(svc.sessions, userID)
	}
}

// EvictIdle drops every session not accessed within the idle TTL and returns how many
// were dropped. Sessions whose last snapshot failed to save are kept.
func (svc *CartService) EvictIdle(now time.Time) int {
	if svc.idleTTL <= 0 {
		return 0
	}

	svc.mu.Lock()
	candidates := make(map[uuid.UUID]*session, len(svc.sessions))
	for userID, s := range svc.sessions {
		candidates[userID] = s
	}
	svc.mu.Unlock()

	evicted := 0
	for userID, s := range candidates {
		s.mu.Lock()
		if !s.evicted && !s.unsaved && now.Sub(s.lastAccess) >= svc.idleTTL {
			svc.drop(userID, s)
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}

// StartEviction runs EvictIdle every interval until c is done.
func (svc *CartService) StartEviction(c context.Context, interval time.Duration) {
	if interval <= 0 || svc.idleTTL <= 0 {
		return
	}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService StartEviction").
		Str(log.KeyProcess, "evicting idle sessions").
		Logger()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-c.Done():
				return
			case <-ticker.C:
				if n := svc.EvictIdle(svc.now()); n > 0 {
					logger.Debug().Int("count", n).Msg("evicted idle sessions")
				}
			}
		}
	}()
}

// withSession runs fn with exclusive access to the user's Store, restoring the persisted
// snapshot on first use. When persist is set the Store is snapshotted after fn succeeds.
func (svc *CartService) withSession(
	c context.Context,
	userID uuid.UUID,
	persist bool,
	fn func(s *store.Store) error,
) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService withSession").
		Str(log.KeyUserID, userID.String()).
		Logger()

	s, err := svc.open(c, userID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := fn(s.store); err != nil {
		return err
	}
	if !persist {
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "saving cart snapshot").Logger()
	data, err := s.store.Snapshot()
	if err == nil {
		err = svc.snapshots.Save(logger.WithContext(c), userID, data)
	}
	if err != nil {
		// kept in memory until a later save succeeds
		s.unsaved = true
		logger.Warn().Err(err).Msg("failed saving cart snapshot")
		return nil
	}
	s.unsaved = false
	return nil
}

func (svc *CartService) restore(c context.Context, userID uuid.UUID, s *store.Store) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService restore").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProcess, "restoring cart snapshot").
		Logger()

	c = logger.WithContext(c)
	data, err := svc.snapshots.Load(c, userID)
	if err != nil {
		err = fmt.Errorf("failed loading cart snapshot with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if data == nil {
		logger.Trace().Msg("no cart snapshot, starting empty cart")
		return nil
	}

	if err := s.Restore(data); err != nil {
		if !errors.Is(err, store.ErrInvalidSnapshot) {
			return err
		}
		logger.Warn().Err(err).Msg("discarding invalid cart snapshot")
		if err := svc.snapshots.Delete(c, userID); err != nil {
			logger.Warn().Err(err).Msg("failed deleting invalid cart snapshot")
		}
		return nil
	}
	logger.Trace().Int(log.KeyCartItemsCount, s.Len()).Msg("restored cart snapshot")

	return nil
}
