package roster

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ringside-app/ringside/internal/platform/httpx"
	"github.com/ringside-app/ringside/internal/shared"
)

// Handler wires HTTP endpoints for the roster.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// pathTypes maps URL segments to entity types.
var pathTypes = map[string]EntityType{
	"wrestlers": EntityWrestler,
	"managers":  EntityManager,
	"referees":  EntityReferee,
	"tag-teams": EntityTagTeam,
	"stables":   EntityStable,
	"titles":    EntityTitle,
}

// pathTransitions maps URL segments to transitions. Delete and restore have
// their own routes.
var pathTransitions = map[string]Transition{
	"employ":    TransitionEmploy,
	"release":   TransitionRelease,
	"suspend":   TransitionSuspend,
	"reinstate": TransitionReinstate,
	"injure":    TransitionInjure,
	"heal":      TransitionHeal,
	"retire":    TransitionRetire,
	"unretire":  TransitionUnretire,
	"debut":     TransitionDebut,
	"pull":      TransitionPull,
}

// MountRoutes registers roster routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{type}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/restore", h.restore)
		r.Post("/{id}/members", h.joinGroup)
		r.Delete("/{id}/members", h.leaveGroup)
		r.Post("/{id}/{transition}", h.transition)
	})
}

func (h *Handler) entityRef(w http.ResponseWriter, r *http.Request) (Ref, bool) {
	t, ok := pathTypes[chi.URLParam(r, "type")]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown roster type")
		return Ref{}, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a positive integer")
		return Ref{}, false
	}
	return Ref{Type: t, ID: id}, true
}

type createRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type entityResponse struct {
	ID        int64      `json:"id"`
	Type      EntityType `json:"type"`
	Name      string     `json:"name"`
	Status    Status     `json:"status,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	t, ok := pathTypes[chi.URLParam(r, "type")]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown roster type")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.CreateEntity(r.Context(), CreateInput{
		Type:    t,
		Name:    req.Name,
		ActorID: shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entityResponse{
		ID:   rec.Ref.ID,
		Type: rec.Ref.Type,
		Name: rec.Name,
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.entityRef(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetEntity(r.Context(), ref)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := map[string]any{
		"id":     view.Ref.ID,
		"type":   view.Ref.Type,
		"name":   view.Name,
		"status": view.Status,
	}
	if view.DeletedAt != nil {
		resp["deleted_at"] = view.DeletedAt
	}
	switch ref.Type {
	case EntityTagTeam:
		resp["bookability"] = view.Bookability
	case EntityStable:
		resp["strength"] = view.Strength
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	t, ok := pathTypes[chi.URLParam(r, "type")]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown roster type")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	records, pagination, err := h.service.ListEntities(r.Context(), ListInput{Type: t, Page: page, PerPage: perPage})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	items := make([]entityResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, entityResponse{ID: rec.Ref.ID, Type: rec.Ref.Type, Name: rec.Name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": items,
		"pagination": map[string]int{
			"page":        pagination.Page,
			"per_page":    pagination.PerPage,
			"total":       pagination.Total,
			"total_pages": pagination.TotalPages,
		},
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.entityRef(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err := h.service.UpdateEntity(r.Context(), ref, UpdateInput{
		Name:    req.Name,
		ActorID: shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionRequest struct {
	EffectiveAt *time.Time `json:"effective_at"`
}

type transitionResponse struct {
	ID     int64      `json:"id"`
	Type   EntityType `json:"type"`
	Status Status     `json:"status"`
	Events []string   `json:"events"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.entityRef(w, r)
	if !ok {
		return
	}
	tr, ok := pathTransitions[chi.URLParam(r, "transition")]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown transition")
		return
	}
	h.applyTransition(w, r, ref, tr)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.entityRef(w, r)
	if !ok {
		return
	}
	h.applyTransition(w, r, ref, TransitionDelete)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.entityRef(w, r)
	if !ok {
		return
	}
	h.applyTransition(w, r, ref, TransitionRestore)
}

func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, ref Ref, tr Transition) {
	var req transitionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
			return
		}
	}
	result, err := h.service.Handle(r.Context(), TransitionRequest{
		Entity:         ref,
		Transition:     tr,
		EffectiveAt:    req.EffectiveAt,
		ActorID:        shared.ActorFromContext(r.Context()),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	names := make([]string, 0, len(result.Events))
	for _, ev := range result.Events {
		names = append(names, ev.Name)
	}
	httpx.JSON(w, http.StatusOK, transitionResponse{
		ID:     result.Entity.ID,
		Type:   result.Entity.Type,
		Status: result.Status,
		Events: names,
	})
}

type membershipRequest struct {
	MemberType string     `json:"member_type" validate:"required"`
	MemberID   int64      `json:"member_id" validate:"required,gt=0"`
	At         *time.Time `json:"at"`
}

func (h *Handler) joinGroup(w http.ResponseWriter, r *http.Request) {
	group, member, at, ok := h.membershipPair(w, r)
	if !ok {
		return
	}
	created, err := h.service.JoinGroup(r.Context(), JoinInput{
		Member:   member,
		Group:    group,
		JoinedAt: at,
		ActorID:  shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":        created.ID,
		"joined_at": created.JoinedAt,
	})
}

func (h *Handler) leaveGroup(w http.ResponseWriter, r *http.Request) {
	group, member, at, ok := h.membershipPair(w, r)
	if !ok {
		return
	}
	err := h.service.LeaveGroup(r.Context(), LeaveInput{
		Member:  member,
		Group:   group,
		LeftAt:  at,
		ActorID: shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) membershipPair(w http.ResponseWriter, r *http.Request) (group, member Ref, at *time.Time, ok bool) {
	group, ok = h.entityRef(w, r)
	if !ok {
		return Ref{}, Ref{}, nil, false
	}
	var req membershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return Ref{}, Ref{}, nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Ref{}, Ref{}, nil, false
	}
	memberType, found := pathTypes[req.MemberType]
	if !found {
		memberType = EntityType(req.MemberType)
		if _, known := entityDimensions[memberType]; !known {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown member type")
			return Ref{}, Ref{}, nil, false
		}
	}
	return group, Ref{Type: memberType, ID: req.MemberID}, req.At, true
}

// respondError maps domain errors onto problem-detail responses. Guard
// denials are conflicts: the entity exists, its state refuses the change.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var te *TransitionError
	switch {
	case errors.As(err, &te):
		httpx.Problem(w, http.StatusConflict, "Transition Refused", te.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrUnsupportedTransition):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unsupported Transition", err.Error())
	case errors.Is(err, ErrInvalidDateRange):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Date Range", err.Error())
	case errors.Is(err, ErrPeriodConflict),
		errors.Is(err, ErrNoOpenPeriod),
		errors.Is(err, ErrMembershipConflict),
		errors.Is(err, ErrNotEnoughMembers),
		errors.Is(err, ErrAlreadyDeleted),
		errors.Is(err, ErrNotDeleted),
		errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("roster request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
