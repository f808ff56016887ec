package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/cart-store/internal/domain"
	"github.com/fjod/go_cart/cart-store/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

type CartHandler struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(timeout time.Duration, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	svc, err := service.FromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, svc.Snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	svc, err := service.FromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req AddItemRequestDTO
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err = svc.AddToCart(ctx, domain.NewProduct{
		ID:       req.ID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Price:    req.Price,
	})
	if err != nil {
		h.logFailure(r, "add", req.ID, err)
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, svc.Snapshot())
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "increment", (*service.CartService).Increment)
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "decrement", (*service.CartService).Decrement)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "remove", (*service.CartService).Remove)
}

func (h *CartHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(*service.CartService, context.Context, string) error) {

	svc, err := service.FromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must not be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := fn(svc, ctx, productID); err != nil {
		h.logFailure(r, op, productID, err)
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, svc.Snapshot())
}

// Events streams the cart as server-sent events: the current cart first, then
// one event per change. Slow readers only see the latest cart.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	svc, err := service.FromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming not supported")
		return
	}

	updates := make(chan service.Snapshot, 1)
	unsubscribe := svc.Subscribe(func(s service.Snapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	current := svc.Snapshot()
	if err := writeEvent(w, current); err != nil {
		return
	}
	flusher.Flush()
	last := current.Version

	for {
		select {
		case <-r.Context().Done():
			return
		case s := <-updates:
			if s.Version <= last {
				continue
			}
			if err := writeEvent(w, s); err != nil {
				h.logger.Debug("event stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
			last = s.Version
		}
	}
}

func writeEvent(w http.ResponseWriter, s service.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: cart\nid: %d\ndata: %s\n\n", s.Version, data)
	return err
}

func (h *CartHandler) logFailure(r *http.Request, op, productID string, err error) {
	h.logger.Warn("cart operation failed",
		zap.String("op", op),
		zap.String("product_id", productID),
		zap.String("request_id", getRequestID(r.Context())),
		zap.Error(err),
	)
}
