package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ringside-app/ringside/internal/shared"
)

// nameCaser capitalizes word starts without lowering the rest, so ring
// names like "AJ Mercury" survive normalization.
var nameCaser = cases.Title(language.English, cases.NoLower)

// normalizeRingName collapses whitespace and capitalizes word starts.
func normalizeRingName(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return nameCaser.String(strings.Join(fields, " "))
}

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntity(ctx context.Context, ref Ref) (EntityRecord, error)
	ListEntities(ctx context.Context, t EntityType, limit, offset int) ([]EntityRecord, int, error)
	GetSnapshot(ctx context.Context, ref Ref) (*Snapshot, error)
	ListCurrentMemberships(ctx context.Context, ref Ref) ([]*Membership, error)
}

// TxRepository exposes the transactional operations one handle() call needs.
// Snapshot loads take row locks so concurrent transitions on the same entity
// serialize.
type TxRepository interface {
	GetSnapshotForUpdate(ctx context.Context, ref Ref) (*Snapshot, error)
	ListCurrentMembershipsForUpdate(ctx context.Context, ref Ref) ([]*Membership, error)
	CreateEntity(ctx context.Context, t EntityType, name string) (int64, error)
	UpdateEntityName(ctx context.Context, ref Ref, name string) error
	OpenPeriod(ctx context.Context, ref Ref, d Dimension, at time.Time) error
	ClosePeriod(ctx context.Context, ref Ref, d Dimension, at time.Time) error
	RewritePeriodStart(ctx context.Context, ref Ref, d Dimension, at time.Time) error
	EndMembership(ctx context.Context, membershipID int64, at time.Time) error
	CreateMembership(ctx context.Context, m Membership) (int64, error)
	SoftDelete(ctx context.Context, ref Ref, at time.Time) error
	Restore(ctx context.Context, ref Ref) error
}

// EntityRecord is the stored identity row for an entity.
type EntityRecord struct {
	Ref       Ref
	Name      string
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates roster lifecycle flows: it loads aggregates under
// lock, plans transitions, replays the plan inside one transaction, and
// publishes events after commit.
type Service struct {
	repo        RepositoryPort
	planner     *Planner
	audit       AuditPort
	publisher   Publisher
	idempotency *shared.IdempotencyStore
	now         func() time.Time
}

// NewService constructs the roster service.
func NewService(repo RepositoryPort, planner *Planner, audit AuditPort, publisher Publisher, idem *shared.IdempotencyStore) *Service {
	return &Service{
		repo:        repo,
		planner:     planner,
		audit:       audit,
		publisher:   publisher,
		idempotency: idem,
		now:         time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// TransitionRequest is the shape every outer surface translates to.
type TransitionRequest struct {
	Entity         Ref
	Transition     Transition
	EffectiveAt    *time.Time
	ActorID        int64
	IdempotencyKey string
}

// TransitionResult reports the outcome of one applied transition.
type TransitionResult struct {
	Entity Ref
	Status Status
	Events []Event
}

// Handle validates, plans, and atomically applies one transition. The
// invocation instant is captured once; an omitted effective date defaults to
// it. Any guard or persistence failure aborts with zero mutation.
func (s *Service) Handle(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	now := s.now()
	effective := now
	if req.EffectiveAt != nil {
		effective = *req.EffectiveAt
	}

	inserted := false
	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, req.IdempotencyKey, "roster.transition"); err != nil {
			return TransitionResult{}, err
		}
		inserted = true
	}

	var result TransitionResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		env, primary, err := s.loadEnvironment(ctx, tx, req.Entity)
		if err != nil {
			return err
		}
		plan, err := s.planner.Plan(ctx, env, req.Entity, req.Transition, effective, now)
		if err != nil {
			return err
		}
		if err := applyPlan(ctx, tx, plan); err != nil {
			return err
		}
		result = TransitionResult{Entity: req.Entity, Status: primary.StatusAt(now), Events: plan.Events}
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, req.IdempotencyKey)
		}
		return TransitionResult{}, err
	}

	s.recordAudit(ctx, req.ActorID, string(req.Transition), req.Entity, map[string]any{"effective_at": effective})
	s.publish(ctx, result.Events)
	return result, nil
}

// loadEnvironment loads the triggering entity plus everything its cascades
// can touch, all under row locks: membership counterparts first, then their
// own managers (employing a tag team employs its wrestlers, which employs
// their managers).
func (s *Service) loadEnvironment(ctx context.Context, tx TxRepository, ref Ref) (*Environment, *Snapshot, error) {
	primary, err := tx.GetSnapshotForUpdate(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	snapshots := []*Snapshot{primary}
	loaded := map[Ref]bool{ref: true}

	memberships, err := tx.ListCurrentMembershipsForUpdate(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	queue := make([]Ref, 0, len(memberships))
	for _, m := range memberships {
		queue = append(queue, m.Member, m.Group)
	}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if loaded[next] {
			continue
		}
		loaded[next] = true
		snap, err := tx.GetSnapshotForUpdate(ctx, next)
		if err != nil {
			return nil, nil, err
		}
		snapshots = append(snapshots, snap)
		// Wrestlers reached through a group cascade drag their own
		// managers into scope.
		if next.Type == EntityWrestler && ref.Type == EntityTagTeam {
			more, err := tx.ListCurrentMembershipsForUpdate(ctx, next)
			if err != nil {
				return nil, nil, err
			}
			for _, m := range more {
				if m.Group.Type == EntityManager {
					memberships = append(memberships, m)
					queue = append(queue, m.Group)
				}
			}
		}
	}
	return NewEnvironment(snapshots, memberships), primary, nil
}

// applyPlan replays the ordered mutations against the transaction.
func applyPlan(ctx context.Context, tx TxRepository, plan *Plan) error {
	for _, step := range plan.Steps {
		var err error
		switch step.Op {
		case OpOpenPeriod:
			err = tx.OpenPeriod(ctx, step.Entity, step.Dimension, step.At)
		case OpClosePeriod:
			err = tx.ClosePeriod(ctx, step.Entity, step.Dimension, step.At)
		case OpRewritePeriodStart:
			err = tx.RewritePeriodStart(ctx, step.Entity, step.Dimension, step.At)
		case OpEndMembership:
			err = tx.EndMembership(ctx, step.MembershipID, step.At)
		case OpSoftDelete:
			err = tx.SoftDelete(ctx, step.Entity, step.At)
		case OpRestore:
			err = tx.Restore(ctx, step.Entity)
		default:
			err = fmt.Errorf("roster: unknown mutation op %s", step.Op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateInput describes a new roster entity.
type CreateInput struct {
	Type    EntityType
	Name    string
	ActorID int64
}

// CreateEntity persists a new entity. Everyone starts unemployed; no
// periods open until the first transition.
func (s *Service) CreateEntity(ctx context.Context, in CreateInput) (EntityRecord, error) {
	name := normalizeRingName(in.Name)
	if name == "" {
		return EntityRecord{}, fmt.Errorf("roster: name required")
	}
	if _, ok := entityDimensions[in.Type]; !ok {
		return EntityRecord{}, fmt.Errorf("roster: unknown entity type %q", in.Type)
	}
	var rec EntityRecord
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateEntity(ctx, in.Type, name)
		if err != nil {
			return err
		}
		rec = EntityRecord{Ref: Ref{Type: in.Type, ID: id}, Name: name}
		return nil
	})
	if err != nil {
		return EntityRecord{}, err
	}
	s.recordAudit(ctx, in.ActorID, "CREATE", rec.Ref, map[string]any{"name": name})
	return rec, nil
}

// UpdateInput carries mutable entity fields.
type UpdateInput struct {
	Name    string
	ActorID int64
}

// UpdateEntity renames an entity.
func (s *Service) UpdateEntity(ctx context.Context, ref Ref, in UpdateInput) error {
	name := normalizeRingName(in.Name)
	if name == "" {
		return fmt.Errorf("roster: name required")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetSnapshotForUpdate(ctx, ref); err != nil {
			return err
		}
		return tx.UpdateEntityName(ctx, ref, name)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, in.ActorID, "UPDATE", ref, map[string]any{"name": name})
	return nil
}

// EntityView is the read model: identity plus derived status and, for
// groups, derived structural flags.
type EntityView struct {
	Ref         Ref
	Name        string
	Status      Status
	DeletedAt   *time.Time
	Bookability Bookability `json:",omitempty"`
	Strength    int         `json:",omitempty"`
}

// GetEntity loads an entity with its derived status.
func (s *Service) GetEntity(ctx context.Context, ref Ref) (EntityView, error) {
	snap, err := s.repo.GetSnapshot(ctx, ref)
	if err != nil {
		return EntityView{}, err
	}
	now := s.now()
	view := EntityView{Ref: ref, Name: snap.Name, Status: snap.StatusAt(now), DeletedAt: snap.DeletedAt}
	if ref.Type == EntityTagTeam || ref.Type == EntityStable {
		memberships, err := s.repo.ListCurrentMemberships(ctx, ref)
		if err != nil {
			return EntityView{}, err
		}
		s.deriveGroupFlags(ctx, &view, memberships, now)
	}
	return view, nil
}

// deriveGroupFlags computes bookability for tag teams and strength for
// stables from current memberships. Read-time only, never stored.
func (s *Service) deriveGroupFlags(ctx context.Context, view *EntityView, memberships []*Membership, now time.Time) {
	var wrestlers, tagTeams, managers int
	for _, m := range memberships {
		if !m.Current() || m.Group != view.Ref {
			continue
		}
		switch m.Member.Type {
		case EntityWrestler:
			if view.Ref.Type == EntityTagTeam {
				snap, err := s.repo.GetSnapshot(ctx, m.Member)
				if err != nil || !snap.employedAt(now) {
					continue
				}
			}
			wrestlers++
		case EntityTagTeam:
			tagTeams++
		case EntityManager:
			managers++
		}
	}
	switch view.Ref.Type {
	case EntityTagTeam:
		view.Bookability = TagTeamBookability(wrestlers)
	case EntityStable:
		view.Strength = StableStrength(wrestlers, tagTeams, managers)
	}
}

// ListInput controls entity listings.
type ListInput struct {
	Type    EntityType
	Page    int
	PerPage int
}

// ListEntities returns a page of entities with pagination metadata.
func (s *Service) ListEntities(ctx context.Context, in ListInput) ([]EntityRecord, shared.Pagination, error) {
	in.Page, in.PerPage = shared.NormalizePage(in.Page, in.PerPage)
	records, total, err := s.repo.ListEntities(ctx, in.Type, in.PerPage, (in.Page-1)*in.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return records, shared.NewPagination(in.Page, in.PerPage, total), nil
}

// JoinInput describes a membership creation.
type JoinInput struct {
	Member   Ref
	Group    Ref
	JoinedAt *time.Time
	ActorID  int64
}

// exclusiveGroups lists group types a member may hold at most one current
// membership in.
var exclusiveGroups = map[EntityType]bool{
	EntityTagTeam: true,
	EntityStable:  true,
}

// JoinGroup opens a membership period between a member and a group,
// enforcing the non-overlap invariant per (member, group) pair and the
// one-current-group rule for tag teams and stables.
func (s *Service) JoinGroup(ctx context.Context, in JoinInput) (Membership, error) {
	now := s.now()
	at := now
	if in.JoinedAt != nil {
		at = *in.JoinedAt
	}
	if err := validatePair(in.Member, in.Group); err != nil {
		return Membership{}, err
	}
	var created Membership
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		member, err := tx.GetSnapshotForUpdate(ctx, in.Member)
		if err != nil {
			return err
		}
		group, err := tx.GetSnapshotForUpdate(ctx, in.Group)
		if err != nil {
			return err
		}
		if member.DeletedAt != nil || group.DeletedAt != nil {
			return ErrNotFound
		}
		current, err := tx.ListCurrentMembershipsForUpdate(ctx, in.Member)
		if err != nil {
			return err
		}
		for _, m := range current {
			if !m.Current() {
				continue
			}
			if m.Group == in.Group {
				return fmt.Errorf("%w: already a current member of %s %q", ErrMembershipConflict, entityLabel(in.Group.Type), group.Name)
			}
			if exclusiveGroups[in.Group.Type] && m.Group.Type == in.Group.Type && m.Member == in.Member {
				return fmt.Errorf("%w: already on another current %s", ErrMembershipConflict, entityLabel(in.Group.Type))
			}
		}
		created = Membership{Member: in.Member, Group: in.Group, JoinedAt: at}
		id, err := tx.CreateMembership(ctx, created)
		if err != nil {
			return err
		}
		created.ID = id
		return nil
	})
	if err != nil {
		return Membership{}, err
	}
	s.recordAudit(ctx, in.ActorID, "JOIN", in.Member, map[string]any{"group_type": in.Group.Type, "group_id": in.Group.ID})
	return created, nil
}

// LeaveInput describes an explicit membership end.
type LeaveInput struct {
	Member  Ref
	Group   Ref
	LeftAt  *time.Time
	ActorID int64
}

// LeaveGroup closes a current membership. An explicit leave that would drop
// a stable below its minimum strength is rejected; lifecycle cascades close
// memberships directly and are exempt.
func (s *Service) LeaveGroup(ctx context.Context, in LeaveInput) error {
	now := s.now()
	at := now
	if in.LeftAt != nil {
		at = *in.LeftAt
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetSnapshotForUpdate(ctx, in.Group); err != nil {
			return err
		}
		memberships, err := tx.ListCurrentMembershipsForUpdate(ctx, in.Group)
		if err != nil {
			return err
		}
		var target *Membership
		var wrestlers, tagTeams, managers int
		for _, m := range memberships {
			if !m.Current() || m.Group != in.Group {
				continue
			}
			if m.Member == in.Member {
				target = m
				continue
			}
			switch m.Member.Type {
			case EntityWrestler:
				wrestlers++
			case EntityTagTeam:
				tagTeams++
			case EntityManager:
				managers++
			}
		}
		if target == nil {
			return fmt.Errorf("%w: no current membership", ErrNotFound)
		}
		if in.Group.Type == EntityStable && StableStrength(wrestlers, tagTeams, managers) < StableMinimumMembers {
			return fmt.Errorf("%w: stable needs at least %d members", ErrNotEnoughMembers, StableMinimumMembers)
		}
		if at.Before(target.JoinedAt) {
			return fmt.Errorf("%w: left before joined", ErrInvalidDateRange)
		}
		return tx.EndMembership(ctx, target.ID, at)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, in.ActorID, "LEAVE", in.Member, map[string]any{"group_type": in.Group.Type, "group_id": in.Group.ID})
	return nil
}

// validatePair rejects member/group combinations the domain does not model.
func validatePair(member, group Ref) error {
	switch group.Type {
	case EntityTagTeam:
		if member.Type != EntityWrestler {
			return fmt.Errorf("%w: only wrestlers join tag teams", ErrMembershipConflict)
		}
	case EntityStable:
		switch member.Type {
		case EntityWrestler, EntityTagTeam, EntityManager:
		default:
			return fmt.Errorf("%w: %s cannot join a stable", ErrMembershipConflict, entityLabel(member.Type))
		}
	case EntityManager:
		if member.Type != EntityWrestler && member.Type != EntityTagTeam {
			return fmt.Errorf("%w: managers manage wrestlers and tag teams", ErrMembershipConflict)
		}
	default:
		return fmt.Errorf("%w: %s is not a group", ErrMembershipConflict, entityLabel(group.Type))
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, ref Ref, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   string(ref.Type),
		EntityID: fmt.Sprintf("%d", ref.ID),
		Meta:     meta,
	})
}

func (s *Service) publish(ctx context.Context, events []Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events)
}

// Errors surfaced to transports for status mapping.
func IsDomainError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te) ||
		errors.Is(err, ErrPeriodConflict) ||
		errors.Is(err, ErrNoOpenPeriod) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrMembershipConflict) ||
		errors.Is(err, ErrNotEnoughMembers) ||
		errors.Is(err, ErrUnsupportedTransition) ||
		errors.Is(err, ErrAlreadyDeleted) ||
		errors.Is(err, ErrNotDeleted)
}
