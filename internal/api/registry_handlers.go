package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/onnwee/palette/internal/audit"
	"github.com/onnwee/palette/internal/middleware"
	"github.com/onnwee/palette/internal/registry"
	"github.com/onnwee/palette/internal/validate"
)

// RegistryHandlers holds dependencies for registry HTTP handlers.
type RegistryHandlers struct {
	registry  *registry.Registry
	auditRepo audit.Repository
	metrics   *middleware.Metrics
}

// NewRegistryHandlers creates a new RegistryHandlers instance.
// auditRepo and metrics may be nil; recording is then skipped.
func NewRegistryHandlers(reg *registry.Registry, auditRepo audit.Repository, metrics *middleware.Metrics) *RegistryHandlers {
	return &RegistryHandlers{
		registry:  reg,
		auditRepo: auditRepo,
		metrics:   metrics,
	}
}

// record logs a mutation attempt to the audit repository and metrics.
// Audit failure never blocks the operation.
func (h *RegistryHandlers) record(r *http.Request, actor, action, entity string, opErr error) {
	outcome := audit.OutcomeSuccess
	detail := ""
	if opErr != nil {
		outcome = audit.OutcomeFailure
		detail = opErr.Error()
	}

	if h.metrics != nil {
		h.metrics.IncMutation(action, outcome)
	}
	if h.auditRepo == nil {
		return
	}

	_, err := h.auditRepo.Record(audit.Entry{
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		Outcome:   outcome,
		Detail:    detail,
		RequestID: middleware.GetRequestID(r.Context()),
	})
	if err != nil {
		slog.WarnContext(r.Context(), "failed to record audit event", "error", err, "action", action)
	}
}

// requireCaller extracts the authenticated caller address, writing a 401
// response when the request carries no identity.
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := middleware.GetCaller(r.Context())
	if caller == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return "", false
	}
	return caller, true
}

// decodeBody decodes a JSON request body, writing a 400 response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return
	}
}

// badIdentifier validates an identity string, writing a 400 response when
// it is malformed.
func badIdentifier(w http.ResponseWriter, r *http.Request, field, value string) bool {
	if err := validate.Identifier(value); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, field+": "+err.Error())
		return true
	}
	return false
}

// SetRenderer handles POST /renderer
// Assigns the renderer identity. Administrator only, exactly once.
func (h *RegistryHandlers) SetRenderer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var body struct {
		Renderer string `json:"renderer"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if badIdentifier(w, r, "renderer", body.Renderer) {
		return
	}

	err := h.registry.SetRenderer(caller, body.Renderer)
	h.record(r, caller, audit.ActionSetRenderer, body.Renderer, err)
	if err != nil {
		writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"renderer": body.Renderer})
}

// AddCollection handles POST /collections
// Extends the collection allow-list. Administrator or renderer.
func (h *RegistryHandlers) AddCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var body struct {
		Collection string `json:"collection"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if badIdentifier(w, r, "collection", body.Collection) {
		return
	}

	err := h.registry.AddAllowedCollection(caller, body.Collection)
	h.record(r, caller, audit.ActionAddCollection, body.Collection, err)
	if err != nil {
		writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"collection": body.Collection})
}

// colorFields is the four-channel request body shared by the color writes.
// Empty strings clear the channel.
type colorFields struct {
	Outline string `json:"outline"`
	Flame   string `json:"flame"`
	Diamond string `json:"diamond"`
	Square  string `json:"square"`
}

// Addresses routes /addresses/{address}/colors for both reads and writes.
func (h *RegistryHandlers) Addresses(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/addresses/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "colors" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}
	address := parts[0]
	if badIdentifier(w, r, "address", address) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getAddressColors(w, r, address)
	case http.MethodPut:
		h.setAddressColors(w, r, address)
	default:
		w.Header().Set("Allow", "GET, PUT")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// setAddressColors handles PUT /addresses/{address}/colors
// Sets or clears the address's global channel defaults. Renderer only.
func (h *RegistryHandlers) setAddressColors(w http.ResponseWriter, r *http.Request, address string) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var body colorFields
	if !decodeBody(w, r, &body) {
		return
	}

	err := h.registry.SetAddressColors(r.Context(), caller, address,
		body.Outline, body.Flame, body.Diamond, body.Square)
	h.record(r, caller, audit.ActionSetAddressColor, address, err)
	if err != nil {
		writeRegistryError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getAddressColors handles GET /addresses/{address}/colors
// Public read; absent channels are null.
func (h *RegistryHandlers) getAddressColors(w http.ResponseWriter, r *http.Request, address string) {
	var cs registry.ColorSet
	for ch, dst := range map[registry.Channel]**string{
		registry.ChannelOutline: &cs.Outline,
		registry.ChannelFlame:   &cs.Flame,
		registry.ChannelDiamond: &cs.Diamond,
		registry.ChannelSquare:  &cs.Square,
	} {
		v, err := h.registry.AddressColor(r.Context(), address, ch)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to read address color", "error", err, "address", address)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to read address colors")
			return
		}
		*dst = v
	}

	writeJSON(w, http.StatusOK, cs)
}

// Collections routes the item-scoped paths:
//
//	PUT /collections/{collection}/items/colors
//	PUT /collections/{collection}/items/{id}/affiliate
//	GET /collections/{collection}/items/{id}
func (h *RegistryHandlers) Collections(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/collections/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] != "items" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}
	collection := parts[0]
	if badIdentifier(w, r, "collection", collection) {
		return
	}

	switch {
	case len(parts) == 3 && parts[2] == "colors" && r.Method == http.MethodPut:
		h.setItemColors(w, r, collection)
	case len(parts) == 3 && r.Method == http.MethodGet:
		h.getItem(w, r, collection, parts[2])
	case len(parts) == 4 && parts[3] == "affiliate" && r.Method == http.MethodPut:
		h.setTopAffiliate(w, r, collection, parts[2])
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
	}
}

// parseItemID parses an item id path segment, writing a 400 on failure.
// Ids are capped at 63 bits so they fit the store's BIGINT columns without
// wrapping.
func parseItemID(w http.ResponseWriter, r *http.Request, raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid item id")
		return 0, false
	}
	return id, true
}

// setItemColors handles PUT /collections/{collection}/items/colors
// Batch per-item overrides plus trophy percentage. Renderer only; the
// whole batch fails if the claimed owner does not hold every item.
func (h *RegistryHandlers) setItemColors(w http.ResponseWriter, r *http.Request, collection string) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var body struct {
		Owner   string   `json:"owner"`
		ItemIDs []uint64 `json:"item_ids"`
		colorFields
		TrophyOuter uint32 `json:"trophy_outer"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if badIdentifier(w, r, "owner", body.Owner) {
		return
	}
	if len(body.ItemIDs) == 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "item_ids must not be empty")
		return
	}
	for _, id := range body.ItemIDs {
		if id > math.MaxInt64 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "item id out of range")
			return
		}
	}

	err := h.registry.SetItemColors(r.Context(), caller, body.Owner, collection, body.ItemIDs,
		body.Outline, body.Flame, body.Diamond, body.Square, body.TrophyOuter)
	h.record(r, caller, audit.ActionSetItemColors, collection, err)
	if err != nil {
		writeRegistryError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setTopAffiliate handles PUT /collections/{collection}/items/{id}/affiliate
// Sets or clears one item's top affiliate color. Renderer only.
func (h *RegistryHandlers) setTopAffiliate(w http.ResponseWriter, r *http.Request, collection, rawID string) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	item, ok := parseItemID(w, r, rawID)
	if !ok {
		return
	}

	var body struct {
		Owner string `json:"owner"`
		Color string `json:"color"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if badIdentifier(w, r, "owner", body.Owner) {
		return
	}

	err := h.registry.SetTopAffiliateColor(r.Context(), caller, body.Owner, collection, item, body.Color)
	h.record(r, caller, audit.ActionSetTopAffiliate, collection+"/"+rawID, err)
	if err != nil {
		writeRegistryError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// itemResponse is the public read shape for one item.
type itemResponse struct {
	Colors       registry.ColorSet `json:"colors"`
	TopAffiliate *string           `json:"top_affiliate"`
	TrophyOuter  *uint32           `json:"trophy_outer"`
}

// getItem handles GET /collections/{collection}/items/{id}
// Public read; an unrecognized collection reads as all-absent rather than
// an error.
func (h *RegistryHandlers) getItem(w http.ResponseWriter, r *http.Request, collection, rawID string) {
	item, ok := parseItemID(w, r, rawID)
	if !ok {
		return
	}

	var resp itemResponse
	for ch, dst := range map[registry.Channel]**string{
		registry.ChannelOutline: &resp.Colors.Outline,
		registry.ChannelFlame:   &resp.Colors.Flame,
		registry.ChannelDiamond: &resp.Colors.Diamond,
		registry.ChannelSquare:  &resp.Colors.Square,
	} {
		v, err := h.registry.TokenColor(r.Context(), collection, item, ch)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to read item color", "error", err, "collection", collection, "item", item)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to read item")
			return
		}
		*dst = v
	}

	affiliate, err := h.registry.TopAffiliateColor(r.Context(), collection, item)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read top affiliate", "error", err, "collection", collection, "item", item)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to read item")
		return
	}
	resp.TopAffiliate = affiliate

	trophy, err := h.registry.TrophyOuter(r.Context(), collection, item)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read trophy outer", "error", err, "collection", collection, "item", item)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to read item")
		return
	}
	resp.TrophyOuter = trophy

	writeJSON(w, http.StatusOK, resp)
}

// AuditEvents handles GET /audit
// Lists recorded mutation events. Administrator only.
func (h *RegistryHandlers) AuditEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller != h.registry.Access().Admin() {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeUnauthorized)
		WriteError(w, ctx, http.StatusForbidden, ErrCodeUnauthorized, "Only the administrator can read the audit trail")
		return
	}

	if h.auditRepo == nil {
		writeJSON(w, http.StatusOK, []*audit.Event{})
		return
	}

	events, err := h.auditRepo.List()
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list audit events", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list audit events")
		return
	}

	writeJSON(w, http.StatusOK, events)
}
