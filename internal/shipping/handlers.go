package shipping

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Handler exposes the shipping admin surface.
type Handler struct {
	Service    *Service
	Production bool
}

// AdminRoutes mounts shipping configuration management.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/shipping/zones", h.ListZones)
	r.Get("/shipping/zones/{id}", h.GetZone)
	r.Post("/shipping/zones", h.CreateZone)
	r.Put("/shipping/zones/{id}", h.UpdateZone)
	r.Delete("/shipping/zones/{id}", h.DeleteZone)
	r.Post("/shipping/zones/{id}/methods", h.CreateMethod)
	r.Put("/shipping/zones/{id}/methods/{methodId}", h.UpdateMethod)
	r.Delete("/shipping/zones/{id}/methods/{methodId}", h.DeleteMethod)
	r.Get("/shipping/classes", h.ListClasses)
	r.Post("/shipping/classes", h.CreateClass)
	r.Delete("/shipping/classes/{id}", h.DeleteClass)
}

type regionPayload struct {
	Country string  `json:"country" validate:"required"`
	State   *string `json:"state"`
	City    *string `json:"city"`
}

type zonePayload struct {
	Name     string          `json:"name" validate:"required"`
	Regions  []regionPayload `json:"regions"`
	ZipCodes []string        `json:"zipCodes"`
}

func (p zonePayload) toZone(createdBy uuid.UUID) *Zone {
	z := &Zone{Name: p.Name, ZipCodes: p.ZipCodes, CreatedBy: createdBy}
	for _, region := range p.Regions {
		z.Regions = append(z.Regions, Region{Country: region.Country, State: region.State, City: region.City})
	}
	return z
}

// ListZones handles GET /shipping/zones.
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.Service.Zones(r.Context())
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"shippingZones": zones})
}

// GetZone handles GET /shipping/zones/{id}.
func (h *Handler) GetZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	z, err := h.Service.GetZone(r.Context(), id)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"shippingZone": z})
}

// CreateZone handles POST /shipping/zones.
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var payload zonePayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	userID, _ := common.UserID(r.Context())
	createdBy, _ := uuid.Parse(userID)
	z := payload.toZone(createdBy)
	if err := h.Service.CreateZone(r.Context(), z); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "shipping zone created", map[string]any{"shippingZone": z})
}

// UpdateZone handles PUT /shipping/zones/{id}.
func (h *Handler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload zonePayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	z := payload.toZone(uuid.Nil)
	z.ID = id
	if err := h.Service.UpdateZone(r.Context(), z); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "shipping zone updated", map[string]any{"shippingZone": z})
}

// DeleteZone handles DELETE /shipping/zones/{id}.
func (h *Handler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteZone(r.Context(), id); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "shipping zone deleted", nil)
}

type classCostPayload struct {
	ShippingClassID uuid.UUID       `json:"shippingClassId" validate:"required"`
	Cost            decimal.Decimal `json:"cost"`
}

type methodPayload struct {
	Kind               MethodKind         `json:"kind" validate:"required"`
	Title              string             `json:"title" validate:"required"`
	Status             MethodStatus       `json:"status"`
	Position           int                `json:"position"`
	Taxable            bool               `json:"taxable"`
	Cost               decimal.Decimal    `json:"cost"`
	ClassCosts         []classCostPayload `json:"costs"`
	FreeCondition      FreeCondition      `json:"conditions"`
	MinimumOrderAmount *decimal.Decimal   `json:"minimumOrderAmount"`
}

func (p methodPayload) toMethod(zoneID uuid.UUID) *Method {
	m := &Method{
		ZoneID:             zoneID,
		Kind:               p.Kind,
		Title:              p.Title,
		Status:             p.Status,
		Position:           p.Position,
		Taxable:            p.Taxable,
		Cost:               p.Cost,
		FreeCondition:      p.FreeCondition,
		MinimumOrderAmount: p.MinimumOrderAmount,
	}
	for _, cc := range p.ClassCosts {
		m.ClassCosts = append(m.ClassCosts, ClassCost{ShippingClassID: cc.ShippingClassID, Cost: cc.Cost})
	}
	return m
}

// CreateMethod handles POST /shipping/zones/{id}/methods.
func (h *Handler) CreateMethod(w http.ResponseWriter, r *http.Request) {
	zoneID, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload methodPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	m := payload.toMethod(zoneID)
	if err := h.Service.CreateMethod(r.Context(), m); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "shipping method created", map[string]any{"shippingMethod": m})
}

// UpdateMethod handles PUT /shipping/zones/{id}/methods/{methodId}.
func (h *Handler) UpdateMethod(w http.ResponseWriter, r *http.Request) {
	zoneID, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	methodID, err := pathUUID(r, "methodId")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload methodPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	m := payload.toMethod(zoneID)
	m.ID = methodID
	if err := h.Service.UpdateMethod(r.Context(), m); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "shipping method updated", map[string]any{"shippingMethod": m})
}

// DeleteMethod handles DELETE /shipping/zones/{id}/methods/{methodId}.
func (h *Handler) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	methodID, err := pathUUID(r, "methodId")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteMethod(r.Context(), methodID); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "shipping method deleted", nil)
}

// ListClasses handles GET /shipping/classes.
func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.Service.ListClasses(r.Context())
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"shippingClasses": classes})
}

type classPayload struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateClass handles POST /shipping/classes.
func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var payload classPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c := &Class{Name: payload.Name, Description: payload.Description}
	if err := h.Service.CreateClass(r.Context(), c); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "shipping class created", map[string]any{"shippingClass": c})
}

// DeleteClass handles DELETE /shipping/classes/{id}.
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
	common.OK(w, "shipping class deleted", nil)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, common.ValidationError("invalid " + name)
	}
	return id, nil
}
