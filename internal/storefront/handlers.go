package storefront

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/events"
	"github.com/noah-isme/toko-storefront/internal/session"
)

// ActivityPublisher receives cart activity for asynchronous processing.
type ActivityPublisher interface {
	Publish(ctx context.Context, a events.Activity) error
}

// Handler exposes the storefront session endpoints.
type Handler struct {
	registry  *Registry
	products  ProductLookup
	publisher ActivityPublisher
	logger    zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Registry  *Registry
	Products  ProductLookup
	Publisher ActivityPublisher
	Logger    zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		registry:  cfg.Registry,
		products:  cfg.Products,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
}

// Routes mounts the storefront endpoints on r. addItem middleware wraps the
// add-to-cart route only, which is where Idempotency-Key is honoured.
func (h *Handler) Routes(r chi.Router, addItem ...func(http.Handler) http.Handler) {
	r.Get("/", h.State)
	r.With(addItem...).Post("/cart/items", h.AddItem)
	r.Delete("/cart/items/{id}", h.RemoveItem)
	r.Patch("/cart/items/{id}", h.UpdateQuantity)
	r.Post("/cart-panel/open", h.OpenCartPanel)
	r.Post("/cart-panel/close", h.CloseCartPanel)
	r.Post("/cart-panel/toggle", h.ToggleCartPanel)
	r.Post("/confirmation/open", h.OpenConfirmation)
	r.Post("/confirmation/close", h.CloseConfirmation)
	r.Post("/confirmation/continue", h.ContinueShopping)
	r.Post("/confirmation/go-to-cart", h.GoToCart)
	r.Post("/departments/enter", h.DepartmentsEnter)
	r.Post("/departments/leave", h.DepartmentsLeave)
	r.Post("/carousel/scroll", h.ScrollCarousel)
	r.Put("/carousel/geometry", h.ResizeCarousel)
	r.Post("/carousel/sync", h.SyncCarousel)
	r.Post("/carousel/slide", h.GoToSlide)
	r.Post("/hero/advance", h.AdvanceHero)
}

type addItemRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
}

// lte matches pricing.MaxQuantity.
type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=999"`
}

type directionRequest struct {
	Direction string `json:"direction" validate:"required"`
}

type syncRequest struct {
	Offset *float64 `json:"offset" validate:"required"`
}

type slideRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

// State handles GET /api/v1/storefront.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	ctrl, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	common.Data(w, http.StatusOK, ctrl.View())
}

// AddItem handles POST /api/v1/storefront/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	product, err := h.products.Product(req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.AddItem(product)
		return events.TopicCartItemAdded
	}, req.ProductID, 0)
}

// RemoveItem handles DELETE /api/v1/storefront/cart/items/{id}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.mutate(w, r, func(ctrl *Controller) string {
		if ctrl.RemoveItem(id) {
			return events.TopicCartItemRemoved
		}
		return ""
	}, id, 0)
}

// UpdateQuantity handles PATCH /api/v1/storefront/cart/items/{id}.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req updateQuantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	qty := *req.Quantity
	h.mutate(w, r, func(ctrl *Controller) string {
		if ctrl.UpdateQuantity(id, qty) {
			return events.TopicCartQuantityUpdated
		}
		return ""
	}, id, qty)
}

// OpenCartPanel handles POST /api/v1/storefront/cart-panel/open.
func (h *Handler) OpenCartPanel(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.OpenCartPanel()
		return events.TopicCartPanelOpened
	}, 0, 0)
}

// CloseCartPanel handles POST /api/v1/storefront/cart-panel/close.
func (h *Handler) CloseCartPanel(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.CloseCartPanel()
		return ""
	}, 0, 0)
}

// ToggleCartPanel handles POST /api/v1/storefront/cart-panel/toggle.
func (h *Handler) ToggleCartPanel(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		if ctrl.ToggleCartPanel() {
			return events.TopicCartPanelOpened
		}
		return ""
	}, 0, 0)
}

// OpenConfirmation handles POST /api/v1/storefront/confirmation/open.
func (h *Handler) OpenConfirmation(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.OpenConfirmation()
		return ""
	}, 0, 0)
}

// CloseConfirmation handles POST /api/v1/storefront/confirmation/close.
func (h *Handler) CloseConfirmation(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.CloseConfirmation()
		return ""
	}, 0, 0)
}

// ContinueShopping handles POST /api/v1/storefront/confirmation/continue.
func (h *Handler) ContinueShopping(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.ContinueShopping()
		return ""
	}, 0, 0)
}

// GoToCart handles POST /api/v1/storefront/confirmation/go-to-cart.
func (h *Handler) GoToCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.GoToCart()
		return events.TopicCartPanelOpened
	}, 0, 0)
}

// DepartmentsEnter handles POST /api/v1/storefront/departments/enter.
func (h *Handler) DepartmentsEnter(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.HoverDepartmentsEnter()
		return ""
	}, 0, 0)
}

// DepartmentsLeave handles POST /api/v1/storefront/departments/leave.
func (h *Handler) DepartmentsLeave(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.HoverDepartmentsLeave()
		return ""
	}, 0, 0)
}

// ScrollCarousel handles POST /api/v1/storefront/carousel/scroll.
func (h *Handler) ScrollCarousel(w http.ResponseWriter, r *http.Request) {
	dir, ok := decodeDirection(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.ScrollCarousel(dir)
		return ""
	}, 0, 0)
}

// ResizeCarousel handles PUT /api/v1/storefront/carousel/geometry.
func (h *Handler) ResizeCarousel(w http.ResponseWriter, r *http.Request) {
	var req Geometry
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.ResizeCarousel(req)
		return ""
	}, 0, 0)
}

// SyncCarousel handles POST /api/v1/storefront/carousel/sync.
func (h *Handler) SyncCarousel(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.SyncCarousel(*req.Offset)
		return ""
	}, 0, 0)
}

// GoToSlide handles POST /api/v1/storefront/carousel/slide.
func (h *Handler) GoToSlide(w http.ResponseWriter, r *http.Request) {
	var req slideRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.GoToSlide(*req.Index)
		return ""
	}, 0, 0)
}

// AdvanceHero handles POST /api/v1/storefront/hero/advance.
func (h *Handler) AdvanceHero(w http.ResponseWriter, r *http.Request) {
	dir, ok := decodeDirection(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctrl *Controller) string {
		ctrl.AdvanceHeroBanner(dir)
		return ""
	}, 0, 0)
}

// mutate applies op to the session controller, persists the snapshot,
// publishes the returned activity topic when non-empty and renders the state.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(*Controller) string, productID, qty int) {
	ctrl, sessionID, ok := h.controller(w, r)
	if !ok {
		return
	}
	topic := op(ctrl)
	ctx := r.Context()
	if err := h.registry.Save(ctx, sessionID); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("save storefront snapshot")
	}
	state := ctrl.View()
	if topic != "" && h.publisher != nil {
		err := h.publisher.Publish(ctx, events.Activity{
			Topic:     topic,
			SessionID: sessionID,
			ProductID: productID,
			Quantity:  qty,
			CartCount: state.Cart.Count,
			CartTotal: state.Cart.Total,
		})
		if err != nil {
			h.logger.Warn().Err(err).Str("topic", topic).Msg("publish storefront activity")
		}
	}
	common.Data(w, http.StatusOK, state)
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*Controller, string, bool) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "storefront registry not configured", nil)
		return nil, "", false
	}
	sessionID, ok := session.ID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return nil, "", false
	}
	return h.registry.Get(r.Context(), sessionID), sessionID, true
}

func decodeDirection(w http.ResponseWriter, r *http.Request) (Direction, bool) {
	var req directionRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return "", false
	}
	dir, err := ParseDirection(req.Direction)
	if err != nil {
		common.WriteError(w, common.BadRequest("direction must be left or right", err))
		return "", false
	}
	return dir, true
}

// pathID parses the {id} segment. Any integer is accepted; ids that match no
// cart line leave the cart unchanged.
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, common.BadRequest("invalid product id", err)
	}
	return id, nil
}
