package tax

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Handler exposes the tax admin surface.
type Handler struct {
	Service    *Service
	Production bool
}

// AdminRoutes mounts tax configuration management.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/tax/options", h.GetOptions)
	r.Put("/tax/options", h.UpdateOptions)
	r.Get("/tax/classes", h.ListClasses)
	r.Get("/tax/classes/{id}", h.GetClass)
	r.Post("/tax/classes", h.CreateClass)
	r.Put("/tax/classes/{id}", h.UpdateClass)
	r.Delete("/tax/classes/{id}", h.DeleteClass)
	r.Post("/tax/classes/{id}/rates", h.CreateRate)
	r.Put("/tax/classes/{id}/rates/{rateId}", h.UpdateRate)
	r.Delete("/tax/classes/{id}/rates/{rateId}", h.DeleteRate)
}

// GetOptions handles GET /tax/options.
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.Options(r.Context())
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"taxOptions": o})
}

type optionsPayload struct {
	PricesEnteredWithTax bool       `json:"pricesEnteredWithTax"`
	CalculateTaxBasedOn  CalcBasis  `json:"calculateTaxBasedOn" validate:"required"`
	ShippingTaxClassID   *uuid.UUID `json:"shippingTaxClass"`
}

// UpdateOptions handles PUT /tax/options.
func (h *Handler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	var payload optionsPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	o := &Options{
		PricesEnteredWithTax: payload.PricesEnteredWithTax,
		CalculateTaxBasedOn:  payload.CalculateTaxBasedOn,
		ShippingTaxClassID:   payload.ShippingTaxClassID,
	}
	if err := h.Service.UpdateOptions(r.Context(), o); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "tax options updated", map[string]any{"taxOptions": o})
}

// ListClasses handles GET /tax/classes.
func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.Service.ListClasses(r.Context())
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"taxClasses": classes})
}

// GetClass handles GET /tax/classes/{id}.
func (h *Handler) GetClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c, err := h.Service.GetClass(r.Context(), id)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"taxClass": c})
}

type classPayload struct {
	Name string `json:"name" validate:"required"`
}

// CreateClass handles POST /tax/classes.
func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var payload classPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c := &Class{Name: payload.Name}
	if err := h.Service.CreateClass(r.Context(), c); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "tax class created", map[string]any{"taxClass": c})
}

// UpdateClass handles PUT /tax/classes/{id}.
func (h *Handler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload classPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c := &Class{ID: id, Name: payload.Name}
	if err := h.Service.UpdateClass(r.Context(), c); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "tax class updated", map[string]any{"taxClass": c})
}

// DeleteClass handles DELETE /tax/classes/{id}.
func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteClass(r.Context(), id); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "tax class deleted", nil)
}

type ratePayload struct {
	Country           string          `json:"country" validate:"required"`
	State             *string         `json:"state"`
	City              *string         `json:"city"`
	Postcode          *string         `json:"postcode"`
	Rate              decimal.Decimal `json:"rate" validate:"required"`
	Priority          int             `json:"priority"`
	IsCompound        bool            `json:"isCompound"`
	AppliesToShipping bool            `json:"appliesToShipping"`
}

func (p ratePayload) toRate(classID uuid.UUID) *Rate {
	return &Rate{
		TaxClassID:        classID,
		Country:           p.Country,
		State:             p.State,
		City:              p.City,
		Postcode:          p.Postcode,
		Rate:              p.Rate,
		Priority:          p.Priority,
		IsCompound:        p.IsCompound,
		AppliesToShipping: p.AppliesToShipping,
	}
}

// CreateRate handles POST /tax/classes/{id}/rates.
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	classID, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload ratePayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	rate := payload.toRate(classID)
	if err := h.Service.CreateRate(r.Context(), rate); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "tax rate created", map[string]any{"taxRate": rate})
}

// UpdateRate handles PUT /tax/classes/{id}/rates/{rateId}.
func (h *Handler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	classID, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	rateID, err := pathUUID(r, "rateId")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload ratePayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	rate := payload.toRate(classID)
	rate.ID = rateID
	if err := h.Service.UpdateRate(r.Context(), rate); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "tax rate updated", map[string]any{"taxRate": rate})
}

// DeleteRate handles DELETE /tax/classes/{id}/rates/{rateId}.
func (h *Handler) DeleteRate(w http.ResponseWriter, r *http.Request) {
	classID, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	rateID, err := pathUUID(r, "rateId")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteRate(r.Context(), classID, rateID); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "tax rate deleted", nil)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, common.ValidationError("invalid " + name)
	}
	return id, nil
}
