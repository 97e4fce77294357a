package vacationhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"planivo/internal/domain/audit"
	"planivo/internal/domain/auth"
	"planivo/internal/domain/org"
	"planivo/internal/domain/vacation"
	"planivo/internal/transport/http/api"
	"planivo/internal/transport/http/middleware"
	"planivo/internal/transport/http/shared"
)

type Handler struct {
	Svc   *vacation.Service
	Org   *org.Store
	Audit *audit.Service
}

func NewHandler(svc *vacation.Service, orgStore *org.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Svc: svc, Org: orgStore, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/types", h.HandleListTypes)
	r.Post("/types", h.HandleCreateType)
	r.Get("/defaults", h.HandleGetDefault)
	r.Put("/defaults", h.HandleSetDefault)
	r.Get("/entitlement", h.HandleEntitlement)
	r.Put("/balances", h.HandleSetBalance)
	r.Get("/mode", h.HandleGetMode)
	r.Put("/mode", h.HandleSetMode)
	r.Post("/plans", h.HandleCreatePlan)
	r.Get("/plans", h.HandleListPlans)
	r.Get("/plans/{planID}", h.HandleGetPlan)
	r.Post("/plans/{planID}/submit", h.HandleSubmit)
	r.Post("/plans/{planID}/decide", h.HandleDecide)
	r.Get("/schedule/export", h.HandleScheduleExport)
}

// writeDomainError maps core errors onto envelope codes so handlers stay thin.
func writeDomainError(w http.ResponseWriter, err error, requestID string) {
	var insufficient *vacation.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		api.FailWith(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), map[string]any{
			"available": insufficient.Available,
			"requested": insufficient.Requested,
			"year":      insufficient.Year,
		}, requestID)
	case errors.Is(err, vacation.ErrNoSegmentsSelected):
		api.Fail(w, http.StatusBadRequest, "no_segments_selected", "at least one segment must remain selected", requestID)
	case errors.Is(err, vacation.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), requestID)
	case errors.Is(err, vacation.ErrUnauthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "not authorized for this action", requestID)
	case errors.Is(err, vacation.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, vacation.ErrNotFound), errors.Is(err, org.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, details any) {
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.OrganizationID, user.StaffID, action, entityType, entityID, reqID, details); err != nil {
		// Audit is best effort; the mutation it describes has already
		// committed.
		return
	}
}

func (h *Handler) HandleListTypes(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	types, err := h.Svc.ListTypes(r.Context(), user.OrganizationID)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, types, reqID)
}

type createTypeRequest struct {
	Name                  string  `json:"name" validate:"required"`
	MaxDaysPerRequest     float64 `json:"maxDaysPerRequest" validate:"gte=0"`
	RequiresDocumentation bool    `json:"requiresDocumentation"`
}

func (h *Handler) HandleCreateType(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if user.Role != auth.RoleSuperAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "only administrators manage leave types", reqID)
		return
	}

	var payload createTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !shared.ValidateStruct(w, payload, reqID) {
		return
	}

	id, err := h.Svc.CreateType(r.Context(), vacation.LeaveType{
		OrganizationID:        user.OrganizationID,
		Name:                  payload.Name,
		MaxDaysPerRequest:     payload.MaxDaysPerRequest,
		RequiresDocumentation: payload.RequiresDocumentation,
		Active:                true,
	})
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}

	h.record(r, user, "leave_type.create", "leave_type", id, payload)
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) HandleGetDefault(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	role := r.URL.Query().Get("role")
	leaveTypeID := r.URL.Query().Get("leaveTypeId")
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if role == "" || leaveTypeID == "" || err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "role, leaveTypeId and year are required", reqID)
		return
	}

	rd, found, err := h.Svc.RoleDefaultFor(r.Context(), user.OrganizationID, role, leaveTypeID, year)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	if !found {
		api.Fail(w, http.StatusNotFound, "not_found", "no default configured", reqID)
		return
	}
	api.Success(w, rd, reqID)
}

type setDefaultRequest struct {
	Role        string  `json:"role" validate:"required"`
	LeaveTypeID string  `json:"leaveTypeId" validate:"required"`
	Year        int     `json:"year" validate:"required,gte=2000"`
	DefaultDays float64 `json:"defaultDays" validate:"gte=0"`
}

func (h *Handler) HandleSetDefault(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if user.Role != auth.RoleSuperAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "only administrators manage entitlements", reqID)
		return
	}

	var payload setDefaultRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !shared.ValidateStruct(w, payload, reqID) {
		return
	}
	if !auth.ValidRole(payload.Role) {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "unknown role", reqID)
		return
	}

	rd := vacation.RoleDefault{
		OrganizationID: user.OrganizationID,
		Role:           payload.Role,
		LeaveTypeID:    payload.LeaveTypeID,
		Year:           payload.Year,
		DefaultDays:    payload.DefaultDays,
	}
	if err := h.Svc.SetRoleDefault(r.Context(), rd); err != nil {
		writeDomainError(w, err, reqID)
		return
	}

	h.record(r, user, "role_default.set", "role_default", payload.Role+"/"+payload.LeaveTypeID, payload)
	api.Success(w, rd, reqID)
}

func (h *Handler) HandleEntitlement(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	staffID := r.URL.Query().Get("staffId")
	if staffID == "" {
		staffID = user.StaffID
	}
	leaveTypeID := r.URL.Query().Get("leaveTypeId")
	if leaveTypeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "leaveTypeId is required", reqID)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		year = time.Now().UTC().Year()
	}
	if staffID != user.StaffID && auth.Tier(user.Role) == 0 {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another staff member's balance", reqID)
		return
	}

	balance, err := h.Svc.EffectiveEntitlement(r.Context(), user.OrganizationID, staffID, leaveTypeID, year)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, balance, reqID)
}

type setBalanceRequest struct {
	StaffID     string  `json:"staffId" validate:"required"`
	LeaveTypeID string  `json:"leaveTypeId" validate:"required"`
	Year        int     `json:"year" validate:"required,gte=2000"`
	Accrued     float64 `json:"accrued" validate:"gte=0"`
}

func (h *Handler) HandleSetBalance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if user.Role != auth.RoleSuperAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "only administrators edit balances", reqID)
		return
	}

	var payload setBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !shared.ValidateStruct(w, payload, reqID) {
		return
	}

	balance, err := h.Svc.SetBalanceOverride(r.Context(), payload.StaffID, payload.LeaveTypeID, payload.Year, payload.Accrued)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}

	h.record(r, user, "balance.override", "balance", payload.StaffID+"/"+payload.LeaveTypeID, payload)
	api.Success(w, balance, reqID)
}

func (h *Handler) HandleGetMode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	mode, err := h.Org.LeaveMode(r.Context(), user.OrganizationID)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"mode": mode}, reqID)
}

type setModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=planning full"`
}

func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if user.Role != auth.RoleSuperAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "only administrators change the leave mode", reqID)
		return
	}

	var payload setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !shared.ValidateStruct(w, payload, reqID) {
		return
	}

	if err := h.Org.SetLeaveMode(r.Context(), user.OrganizationID, payload.Mode); err != nil {
		writeDomainError(w, err, reqID)
		return
	}

	h.record(r, user, "organization.set_leave_mode", "organization", user.OrganizationID, payload)
	api.Success(w, map[string]string{"mode": payload.Mode}, reqID)
}

type segmentPayload struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

type createPlanRequest struct {
	StaffID     string           `json:"staffId"`
	LeaveTypeID string           `json:"leaveTypeId" validate:"required"`
	Segments    []segmentPayload `json:"segments" validate:"required,min=1,dive"`
	Notes       string           `json:"notes"`
}

func parseSegments(payload []segmentPayload) ([]vacation.SegmentInput, error) {
	out := make([]vacation.SegmentInput, 0, len(payload))
	for _, seg := range payload {
		start, err := shared.ParseDate(seg.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := shared.ParseDate(seg.EndDate)
		if err != nil {
			return nil, err
		}
		out = append(out, vacation.SegmentInput{StartDate: start, EndDate: end})
	}
	return out, nil
}

// HandleCreatePlan covers both entry paths: a staff member drafting their own
// request, and a manager scheduling leave for a subordinate. The second form
// skips the draft stage and carries an immediate decision.
func (h *Handler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !shared.ValidateStruct(w, payload, reqID) {
		return
	}

	segments, err := parseSegments(payload.Segments)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "segment dates must be YYYY-MM-DD", reqID)
		return
	}

	if payload.StaffID != "" && payload.StaffID != user.StaffID {
		plan, err := h.Svc.CreateDirect(r.Context(), vacation.CreateDirectInput{
			StaffID:     payload.StaffID,
			ManagerID:   user.StaffID,
			LeaveTypeID: payload.LeaveTypeID,
			Segments:    segments,
			Notes:       payload.Notes,
		})
		if err != nil {
			writeDomainError(w, err, reqID)
			return
		}
		h.record(r, user, "plan.create_direct", "plan", plan.ID, map[string]any{"staffId": payload.StaffID, "status": plan.Status})
		api.Created(w, plan, reqID)
		return
	}

	plan, err := h.Svc.CreatePlan(r.Context(), vacation.CreatePlanInput{
		StaffID:     user.StaffID,
		LeaveTypeID: payload.LeaveTypeID,
		Segments:    segments,
		Notes:       payload.Notes,
		CreatedBy:   user.StaffID,
	})
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	h.record(r, user, "plan.create", "plan", plan.ID, nil)
	api.Created(w, plan, reqID)
}

func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var plans []vacation.Plan
	var err error
	switch r.URL.Query().Get("view") {
	case "pending":
		plans, err = h.Svc.PendingForActor(r.Context(), user.StaffID)
	default:
		plans, err = h.Svc.PlansForStaff(r.Context(), user.StaffID)
	}
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, plans, reqID)
}

func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	planID := chi.URLParam(r, "planID")

	plan, approvals, err := h.Svc.PlanByID(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	if plan.StaffID != user.StaffID && plan.CreatedBy != user.StaffID && auth.Tier(user.Role) == 0 {
		api.Fail(w, http.StatusForbidden, "forbidden", "not authorized to view this plan", reqID)
		return
	}

	api.Success(w, map[string]any{"plan": plan, "approvals": approvals}, reqID)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	planID := chi.URLParam(r, "planID")

	plan, err := h.Svc.Submit(r.Context(), planID, user.StaffID)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}

	h.record(r, user, "plan.submit", "plan", plan.ID, nil)
	api.Success(w, plan, reqID)
}

type decideRequest struct {
	Decision           string   `json:"decision" validate:"required,oneof=approve reject"`
	SelectedSegmentIDs []string `json:"selectedSegmentIds"`
	Justification      string   `json:"justification"`
}

func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	planID := chi.URLParam(r, "planID")

	var payload decideRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !shared.ValidateStruct(w, payload, reqID) {
		return
	}

	result, err := h.Svc.Decide(r.Context(), vacation.DecideInput{
		PlanID:             planID,
		ActorID:            user.StaffID,
		Decision:           payload.Decision,
		SelectedSegmentIDs: payload.SelectedSegmentIDs,
		Justification:      payload.Justification,
	})
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}

	// Detected conflicts pause the approval rather than fail it: the response
	// carries the conflict set so the approver can shrink the selection or
	// resubmit with a justification.
	if result.Conflicts != nil {
		api.FailWith(w, http.StatusConflict, "conflicts_detected",
			"conflicts detected; resubmit with a justification or a narrower selection",
			result.Conflicts, reqID)
		return
	}

	h.record(r, user, "plan.decide", "plan", planID, map[string]any{
		"decision":  payload.Decision,
		"status":    result.Plan.Status,
		"selected":  payload.SelectedSegmentIDs,
		"justified": payload.Justification != "",
	})
	api.Success(w, result.Plan, reqID)
}

func (h *Handler) HandleScheduleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if auth.Tier(user.Role) == 0 {
		api.Fail(w, http.StatusForbidden, "forbidden", "supervisors only", reqID)
		return
	}

	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")
	if fromParam == "" || toParam == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "from and to are required", reqID)
		return
	}
	from, err := shared.ParseDate(fromParam)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "from must be YYYY-MM-DD", reqID)
		return
	}
	to, err := shared.ParseDate(toParam)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "to must be YYYY-MM-DD", reqID)
		return
	}

	rows, err := h.Svc.ApprovedSchedule(r.Context(), user.OrganizationID, from, to)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}

	switch r.URL.Query().Get("format") {
	case "pdf":
		if err := writeSchedulePDF(w, rows, from, to); err != nil {
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render pdf", reqID)
		}
	case "", "csv":
		writeScheduleCSV(w, rows)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_input", "format must be csv or pdf", reqID)
	}
}
