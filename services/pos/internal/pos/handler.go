package pos

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/session"
	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	config  *apt.Config
	tlm     *telemetry.HTTP
	logger  apt.Logger
}

func NewHandler(service *Service, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return &Handler{
		service: service,
		config:  config,
		tlm:     telemetry.NewHTTP(),
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions/{sid}/draft", func(r chi.Router) {
		r.Post("/", h.StartDraft)
		r.Get("/", h.GetDraft)
		r.Put("/discount", h.SetDiscount)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{lineID}", h.SetQuantity)
		r.Delete("/items/{lineID}", h.RemoveItem)
		r.Post("/submit", h.Submit)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateOrderStatus)
		r.Get("/{id}/tickets", h.ListOrderTickets)
		r.Post("/{id}/bill", h.Pay)
	})

	r.Patch("/menu/items/{id}/availability", h.SetMenuItemAvailability)

	r.Get("/stations/{station}/tickets", h.ListStationTickets)

	r.Route("/tickets/{id}", func(r chi.Router) {
		r.Get("/", h.GetTicket)
		r.Post("/start", h.ticketAction(kitchen.ActionStart))
		r.Post("/ready", h.ticketAction(kitchen.ActionReady))
		r.Post("/hold", h.ticketAction(kitchen.ActionHold))
		r.Post("/unhold", h.ticketAction(kitchen.ActionUnhold))
		r.Post("/bump", h.ticketAction(kitchen.ActionBump))
		r.Put("/priority", h.SetTicketPriority)
	})

	r.Get("/reports/sales", h.SalesReport)

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Post("/{id}/read", h.MarkNotificationRead)
	})
}

// Draft handlers

type StartDraftRequest struct {
	OrderType string     `json:"order_type"`
	TableID   *uuid.UUID `json:"table_id,omitempty"`
	WaiterID  string     `json:"waiter_id,omitempty"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type SetDiscountRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

type PriorityRequest struct {
	Priority bool `json:"priority"`
}

type PayPayload struct {
	DiscountPercent *decimal.Decimal       `json:"discount_percent,omitempty"`
	PaymentMethod   string                 `json:"payment_method"`
	AmountPaid      decimal.Decimal        `json:"amount_paid"`
	SplitPayments   []billing.SplitPayment `json:"split_payments,omitempty"`
	CashierID       string                 `json:"cashier_id,omitempty"`
}

type SubmitResponse struct {
	Order   *order.Order     `json:"order"`
	Tickets []kitchen.Ticket `json:"tickets"`
}

type AddItemResponse struct {
	Line  order.OrderItem `json:"line"`
	Draft *order.Draft    `json:"draft"`
}

func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.StartDraft")
	defer finish()

	log := h.log(r)

	var req StartDraftRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	d, err := h.service.StartDraft(r.Context(), chi.URLParam(r, "sid"), order.DraftOptions{
		OrderType: req.OrderType,
		TableID:   req.TableID,
		WaiterID:  req.WaiterID,
	})
	if err != nil {
		h.respondErr(w, log, "cannot start draft", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, d)
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetDraft")
	defer finish()

	log := h.log(r)

	d, err := h.service.Draft(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		h.respondErr(w, log, "cannot load draft", err)
		return
	}

	apt.RespondSuccess(w, d)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItem")
	defer finish()

	log := h.log(r)

	var req session.AddItemRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if req.MenuItemID == uuid.Nil {
		apt.RespondError(w, http.StatusBadRequest, "menu_item_id is required")
		return
	}

	line, d, err := h.service.AddItem(r.Context(), chi.URLParam(r, "sid"), req)
	if err != nil {
		h.respondErr(w, log, "cannot add item", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, AddItemResponse{Line: line, Draft: d})
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetQuantity")
	defer finish()

	log := h.log(r)

	lineID, ok := h.parseUUIDParam(w, r, log, "lineID")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	d, err := h.service.SetQuantity(r.Context(), chi.URLParam(r, "sid"), lineID, req.Quantity)
	if err != nil {
		h.respondErr(w, log, "cannot set quantity", err)
		return
	}

	apt.RespondSuccess(w, d)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveItem")
	defer finish()

	log := h.log(r)

	lineID, ok := h.parseUUIDParam(w, r, log, "lineID")
	if !ok {
		return
	}

	d, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "sid"), lineID)
	if err != nil {
		h.respondErr(w, log, "cannot remove item", err)
		return
	}

	apt.RespondSuccess(w, d)
}

func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetDiscount")
	defer finish()

	log := h.log(r)

	var req SetDiscountRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	d, err := h.service.SetDiscount(r.Context(), chi.URLParam(r, "sid"), req.DiscountPercent)
	if err != nil {
		h.respondErr(w, log, "cannot set discount", err)
		return
	}

	apt.RespondSuccess(w, d)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Submit")
	defer finish()

	log := h.log(r)

	o, tickets, err := h.service.Submit(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		h.respondErr(w, log, "cannot submit order", err)
		return
	}

	links := apt.RESTfulLinksFor(o)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, SubmitResponse{Order: o, Tickets: tickets}, links...)
}

// Order handlers

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)

	q := r.URL.Query()
	filter := order.ListFilter{
		Status:    q.Get("status"),
		OrderType: q.Get("order_type"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			log.Debug("invalid limit parameter", "limit", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = limit
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.respondErr(w, log, "cannot list orders", err)
		return
	}

	apt.RespondSuccess(w, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	o, err := h.service.Order(r.Context(), id)
	if err != nil {
		h.respondErr(w, log, "cannot load order", err)
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderStatus")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	o, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondErr(w, log, "cannot update order status", err)
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) ListOrderTickets(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrderTickets")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	apt.RespondSuccess(w, h.service.OrderTickets(id))
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Pay")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	var req PayPayload
	if !h.decode(w, r, log, &req) {
		return
	}

	bill, err := h.service.Pay(r.Context(), id, PayRequest{
		DiscountPercent: req.DiscountPercent,
		Payment: billing.Payment{
			Method:     req.PaymentMethod,
			AmountPaid: req.AmountPaid,
			Splits:     req.SplitPayments,
			CashierID:  req.CashierID,
		},
	})
	if err != nil {
		h.respondErr(w, log, "cannot pay order", err)
		return
	}

	links := apt.RESTfulLinksFor(&bill)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, bill, links...)
}

// Menu handlers

// SetMenuItemAvailability is the "86" toggle used when the kitchen runs out
// of an item.
func (h *Handler) SetMenuItemAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetMenuItemAvailability")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	var req AvailabilityRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if req.IsAvailable == nil {
		apt.RespondError(w, http.StatusBadRequest, "is_available is required")
		return
	}

	item, err := h.service.SetMenuItemAvailability(r.Context(), id, *req.IsAvailable)
	if err != nil {
		h.respondErr(w, log, "cannot set menu item availability", err)
		return
	}

	apt.RespondSuccess(w, item)
}

// Kitchen handlers

func (h *Handler) ListStationTickets(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListStationTickets")
	defer finish()

	log := h.log(r)

	views, err := h.service.StationTickets(chi.URLParam(r, "station"))
	if err != nil {
		h.respondErr(w, log, "cannot list station tickets", err)
		return
	}

	apt.RespondSuccess(w, map[string]interface{}{
		"station": strings.ToUpper(chi.URLParam(r, "station")),
		"tickets": views,
	})
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTicket")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	t, err := h.service.Ticket(id)
	if err != nil {
		h.respondErr(w, log, "cannot load ticket", err)
		return
	}

	links := apt.RESTfulLinksFor(&t)
	apt.RespondSuccess(w, t, links...)
}

func (h *Handler) ticketAction(action kitchen.Action) http.HandlerFunc {
	name := "Handler.Ticket" + strings.ToUpper(string(action[:1])) + string(action[1:])

	return func(w http.ResponseWriter, r *http.Request) {
		w, r, finish := h.tlm.Start(w, r, name)
		defer finish()

		log := h.log(r)

		id, ok := h.parseUUIDParam(w, r, log, "id")
		if !ok {
			return
		}

		t, err := h.service.TicketAction(r.Context(), id, action)
		if err != nil {
			h.respondErr(w, log, fmt.Sprintf("cannot %s ticket", action), err)
			return
		}

		links := apt.RESTfulLinksFor(&t)
		apt.RespondSuccess(w, t, links...)
	}
}

func (h *Handler) SetTicketPriority(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetTicketPriority")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	var req PriorityRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	t, err := h.service.SetTicketPriority(r.Context(), id, req.Priority)
	if err != nil {
		h.respondErr(w, log, "cannot set ticket priority", err)
		return
	}

	apt.RespondSuccess(w, t)
}

// Report and notification handlers

func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SalesReport")
	defer finish()

	log := h.log(r)

	date := h.service.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, date.Location())
		if err != nil {
			log.Debug("invalid date parameter", "date", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid date parameter, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	rep, err := h.service.SalesReport(r.Context(), date)
	if err != nil {
		h.respondErr(w, log, "cannot build sales report", err)
		return
	}

	apt.RespondSuccess(w, rep)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListNotifications")
	defer finish()

	role := r.URL.Query().Get("role")
	if role == "" {
		apt.RespondError(w, http.StatusBadRequest, "role is required")
		return
	}

	apt.RespondSuccess(w, map[string]interface{}{
		"notifications": h.service.Notifications(role),
		"unread":        h.service.UnreadNotifications(role),
	})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkNotificationRead")
	defer finish()

	log := h.log(r)

	id, ok := h.parseUUIDParam(w, r, log, "id")
	if !ok {
		return
	}

	if err := h.service.MarkNotificationRead(id); err != nil {
		h.respondErr(w, log, "cannot mark notification", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helpers

// respondErr maps the error kind to a status and a message category the
// client can act on.
func (h *Handler) respondErr(w http.ResponseWriter, log apt.Logger, msg string, err error) {
	status, category := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err)
	} else {
		log.Debug(msg, "error", err)
	}

	detail := err.Error()
	var pe *poserr.Error
	if errors.As(err, &pe) && pe.Message != "" {
		detail = pe.Message
	}
	apt.RespondError(w, status, fmt.Sprintf("%s: %s", category, detail))
}

// StatusFor returns the HTTP status and the message category of err.
func StatusFor(err error) (int, string) {
	switch poserr.KindOf(err) {
	case poserr.KindValidation:
		return http.StatusBadRequest, "fix your input"
	case poserr.KindNotFound:
		return http.StatusNotFound, "no longer exists"
	case poserr.KindState:
		return http.StatusConflict, "not allowed in current state"
	case poserr.KindGateway:
		return http.StatusServiceUnavailable, "try again"
	default:
		return http.StatusInternalServerError, "system error"
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log apt.Logger, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if len(body) == 0 {
		return true
	}

	if err := json.Unmarshal(body, v); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

func (h *Handler) parseUUIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		log.Debug("missing path parameter", "param", name)
		apt.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Debug("invalid path parameter", "param", name, "value", raw)
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
