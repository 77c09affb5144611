package api

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerengine/internal/rules"
)

type createRuleSetRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	HouseEdge   decimal.Decimal `json:"house_edge"`
}

type addRuleRequest struct {
	RuleType  rules.RuleType  `json:"rule_type"`
	RuleParam decimal.Decimal `json:"rule_param"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ListRuleSetsHandler handles GET /admin/rule-sets
func (h *HandlerProvider) ListRuleSetsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Registry.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if list == nil {
		list = []rules.RuleSet{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"rule_sets": list})
}

// GetRuleSetHandler handles GET /admin/rule-sets/{id}
func (h *HandlerProvider) GetRuleSetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rs, err := h.svc.Registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rs)
}

// CreateRuleSetHandler handles POST /admin/rule-sets
func (h *HandlerProvider) CreateRuleSetHandler(w http.ResponseWriter, r *http.Request) {
	var req createRuleSetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rs, err := h.svc.Registry.Create(r.Context(), req.Name, req.Description, req.HouseEdge)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rs)
}

// AddRuleHandler handles POST /admin/rule-sets/{id}/rules
func (h *HandlerProvider) AddRuleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addRuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rule, err := h.svc.Registry.AddRule(r.Context(), id, req.RuleType, req.RuleParam)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// ActivateRuleSetHandler handles POST /admin/rule-sets/{id}/activate
func (h *HandlerProvider) ActivateRuleSetHandler(w http.ResponseWriter, r *http.Request) {
	h.ruleSetAction(w, r, h.svc.Registry.Activate, "rule set activated")
}

// DeactivateRuleSetHandler handles POST /admin/rule-sets/{id}/deactivate
func (h *HandlerProvider) DeactivateRuleSetHandler(w http.ResponseWriter, r *http.Request) {
	h.ruleSetAction(w, r, h.svc.Registry.Deactivate, "rule set deactivated")
}

// DeleteRuleSetHandler handles DELETE /admin/rule-sets/{id}
func (h *HandlerProvider) DeleteRuleSetHandler(w http.ResponseWriter, r *http.Request) {
	h.ruleSetAction(w, r, h.svc.Registry.Delete, "rule set deleted")
}

// RuleTypesHandler handles GET /admin/rule-types
func (h *HandlerProvider) RuleTypesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rule_types": h.svc.Registry.RuleTypes()})
}

func (h *HandlerProvider) ruleSetAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, id int64) error,
	done string,
) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = action(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: done})
}
