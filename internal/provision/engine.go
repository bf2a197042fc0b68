// Package provision establishes the user, account, workspace, member and role
// graph for a login or registration as one atomic unit.
//
// Both flows run inside a single store transaction scoped to the call. The
// engine holds no locks of its own; conflicting writes from concurrent calls
// are serialized by the store's transaction isolation and unique indexes.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/helper"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/metrics"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/queue"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/security"
)

const (
	flowLoginOrCreate = "login_or_create"
	flowRegister      = "register"
)

var ErrPasswordRequired = fmt.Errorf("%w: password is required", domain.ErrInvalidInput)

// Store is the part of the entity store the engine writes through.
type Store interface {
	WithTx(ctx context.Context, fn func(tx repo.Tx) error) error
	FindUserByEmail(ctx context.Context, tx repo.Tx, email string) (*domain.User, error)
	CreateUser(ctx context.Context, tx repo.Tx, u *domain.User) error
	UpdateUser(ctx context.Context, tx repo.Tx, id primitive.ObjectID, p domain.UserPatch) error
	CreateAccount(ctx context.Context, tx repo.Tx, a *domain.Account) error
	CreateWorkspace(ctx context.Context, tx repo.Tx, w *domain.Workspace) error
	FindWorkspaceByID(ctx context.Context, tx repo.Tx, id primitive.ObjectID) (*domain.Workspace, error)
	FindRoleByName(ctx context.Context, tx repo.Tx, name string) (*domain.Role, error)
	CreateRole(ctx context.Context, tx repo.Tx, r *domain.Role) error
	CreateMember(ctx context.Context, tx repo.Tx, m *domain.Member) error
}

type LoginInput struct {
	Provider    string
	ProviderID  string
	DisplayName string
	Email       string
	Picture     string
	RequestID   string
}

type RegisterInput struct {
	Email     string
	Name      string
	Password  string
	RequestID string
}

type Engine struct {
	store    Store
	catalog  permission.Catalog
	hasher   security.Hasher
	pub      queue.Publisher
	exchange string
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option        { return func(e *Engine) { e.log = l } }
func WithClock(now func() time.Time) Option  { return func(e *Engine) { e.now = now } }
func WithPublisher(p queue.Publisher) Option { return func(e *Engine) { e.pub = p } }
func WithHasher(h security.Hasher) Option    { return func(e *Engine) { e.hasher = h } }

// WithExchange sets the exchange events are published to; queue.Exchange by default.
func WithExchange(name string) Option { return func(e *Engine) { e.exchange = name } }

func New(store Store, catalog permission.Catalog, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		catalog:  catalog,
		hasher:   security.NewBcrypt(),
		pub:      queue.NewNoop(),
		exchange: queue.Exchange,
		log:      log.L(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// LoginOrCreate resolves the user behind a login event, provisioning the
// whole graph on first sight of the email. A returning user only gets
// last_login bumped; a returning user whose current workspace does not
// resolve is an error, never repaired here.
func (e *Engine) LoginOrCreate(ctx context.Context, in LoginInput) (domain.ProvisionResult, error) {
	started := time.Now()
	email := helper.NormalizeEmail(in.Email)
	if email == "" {
		metrics.ObserveProvision(flowLoginOrCreate, "invalid", started)
		return domain.ProvisionResult{}, domain.ErrEmailRequired
	}
	name := displayName(in.DisplayName, email)

	var (
		res     domain.ProvisionResult
		created bool
	)
	err := e.runTx(ctx, flowLoginOrCreate, func(tx repo.Tx) error {
		created = false
		user, err := e.store.FindUserByEmail(ctx, tx, email)
		if err != nil {
			return err
		}

		if user == nil {
			user = &domain.User{Email: email, Name: name, IsActive: true}
			if in.Picture != "" {
				pic := in.Picture
				user.ProfilePicture = &pic
			}
			if err := e.store.CreateUser(ctx, tx, user); err != nil {
				return err
			}
			if err := e.store.CreateAccount(ctx, tx, &domain.Account{
				UserID:     user.ID,
				Provider:   in.Provider,
				ProviderID: in.ProviderID,
			}); err != nil {
				return err
			}
			ws, err := e.bootstrapWorkspace(ctx, tx, user.ID, name)
			if err != nil {
				return err
			}
			res = domain.ProvisionResult{UserID: user.ID, WorkspaceID: ws.ID}
			created = true
			return nil
		}

		now := e.now()
		if err := e.store.UpdateUser(ctx, tx, user.ID, domain.UserPatch{LastLogin: &now}); err != nil {
			return err
		}
		if user.CurrentWorkspace == nil {
			return domain.ErrWorkspaceNotFound
		}
		ws, err := e.store.FindWorkspaceByID(ctx, tx, *user.CurrentWorkspace)
		if err != nil {
			return err
		}
		if ws == nil {
			return domain.ErrWorkspaceNotFound
		}
		res = domain.ProvisionResult{UserID: user.ID, WorkspaceID: ws.ID}
		return nil
	})
	if err != nil {
		metrics.ObserveProvision(flowLoginOrCreate, outcomeOf(err), started)
		e.log.Warn("login or create failed",
			zap.String("provider", in.Provider), zap.String("email_hash", helper.Hash8(email)), zap.Error(err))
		return domain.ProvisionResult{}, err
	}

	if created {
		metrics.ObserveProvision(flowLoginOrCreate, "created", started)
		e.log.Info("user provisioned",
			zap.String("user_id", res.UserID.Hex()), zap.String("workspace_id", res.WorkspaceID.Hex()),
			zap.String("provider", in.Provider))
		e.publish(ctx, queue.KeyUserProvisioned, queue.UserProvisioned{
			UserID: res.UserID, WorkspaceID: res.WorkspaceID, Email: email, Name: name, Provider: in.Provider,
		}, in.RequestID)
	} else {
		metrics.ObserveProvision(flowLoginOrCreate, "existing", started)
	}
	e.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{
		UserID: res.UserID, WorkspaceID: res.WorkspaceID, Email: email, Provider: in.Provider,
	}, in.RequestID)
	return res, nil
}

// Register provisions a password account. It fails with ErrEmailExists, before
// any write, when the email is already taken.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (domain.ProvisionResult, error) {
	started := time.Now()
	email := helper.NormalizeEmail(in.Email)
	if email == "" {
		metrics.ObserveProvision(flowRegister, "invalid", started)
		return domain.ProvisionResult{}, domain.ErrEmailRequired
	}
	if in.Password == "" {
		metrics.ObserveProvision(flowRegister, "invalid", started)
		return domain.ProvisionResult{}, ErrPasswordRequired
	}
	name := displayName(in.Name, email)

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		metrics.ObserveProvision(flowRegister, "error", started)
		return domain.ProvisionResult{}, fmt.Errorf("hash password: %w", err)
	}

	var res domain.ProvisionResult
	err = e.runTx(ctx, flowRegister, func(tx repo.Tx) error {
		existing, err := e.store.FindUserByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailExists
		}

		user := &domain.User{Email: email, Name: name, Password: hash, IsActive: true}
		if err := e.store.CreateUser(ctx, tx, user); err != nil {
			return err
		}
		if err := e.store.CreateAccount(ctx, tx, &domain.Account{
			UserID:     user.ID,
			Provider:   domain.ProviderEmail,
			ProviderID: email,
		}); err != nil {
			return err
		}
		ws, err := e.bootstrapWorkspace(ctx, tx, user.ID, name)
		if err != nil {
			return err
		}
		res = domain.ProvisionResult{UserID: user.ID, WorkspaceID: ws.ID}
		return nil
	})
	if err != nil {
		metrics.ObserveProvision(flowRegister, outcomeOf(err), started)
		e.log.Warn("register failed", zap.String("email_hash", helper.Hash8(email)), zap.Error(err))
		return domain.ProvisionResult{}, err
	}

	metrics.ObserveProvision(flowRegister, "created", started)
	e.log.Info("user registered",
		zap.String("user_id", res.UserID.Hex()), zap.String("workspace_id", res.WorkspaceID.Hex()))
	e.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: res.UserID, WorkspaceID: res.WorkspaceID, Email: email, Name: name,
	}, in.RequestID)
	return res, nil
}

// bootstrapWorkspace creates the user's first workspace, binds the user to it
// as OWNER and makes it the current workspace.
func (e *Engine) bootstrapWorkspace(ctx context.Context, tx repo.Tx, userID primitive.ObjectID, name string) (*domain.Workspace, error) {
	ws := domain.DefaultWorkspace(name, userID)
	if err := e.store.CreateWorkspace(ctx, tx, ws); err != nil {
		// invite_code is the only unique key on workspaces
		if errors.Is(err, domain.ErrConflict) {
			return nil, &txRace{what: "invite code collision", err: err}
		}
		return nil, err
	}

	owner, err := e.ownerRole(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := e.store.CreateMember(ctx, tx, &domain.Member{
		UserID:      userID,
		WorkspaceID: ws.ID,
		RoleID:      owner.ID,
		JoinedAt:    e.now(),
	}); err != nil {
		return nil, err
	}

	if err := e.store.UpdateUser(ctx, tx, userID, domain.UserPatch{CurrentWorkspace: &ws.ID}); err != nil {
		return nil, err
	}
	return ws, nil
}

// ownerRole finds the OWNER role, creating it from the catalog when the
// seeder has not run yet.
func (e *Engine) ownerRole(ctx context.Context, tx repo.Tx) (*domain.Role, error) {
	role, err := e.store.FindRoleByName(ctx, tx, domain.RoleOwner)
	if err != nil {
		return nil, err
	}
	if role != nil {
		return role, nil
	}

	e.log.Warn("owner role not found, creating it")
	role = &domain.Role{Name: domain.RoleOwner, Permissions: e.catalog.OwnerPermissions()}
	if err := e.store.CreateRole(ctx, tx, role); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &txRace{what: "owner role created concurrently", err: err}
		}
		return nil, err
	}
	return role, nil
}

// txRace marks a uniqueness conflict that a fresh attempt resolves: the OWNER
// role created by a concurrent flow, or a colliding invite code.
type txRace struct {
	what string
	err  error
}

func (r *txRace) Error() string { return r.what + ": " + r.err.Error() }
func (r *txRace) Unwrap() error { return r.err }

// runTx runs fn in one transaction. When fn hit a txRace the aborted attempt
// left nothing behind, so the whole transaction is run once more. The error
// returned is the store's own.
func (e *Engine) runTx(ctx context.Context, flow string, fn func(tx repo.Tx) error) error {
	err := e.store.WithTx(ctx, fn)
	var race *txRace
	if errors.As(err, &race) {
		e.log.Info("retrying transaction", zap.String("flow", flow), zap.String("reason", race.what))
		err = e.store.WithTx(ctx, fn)
	}
	if errors.As(err, &race) {
		return race.err
	}
	return err
}

func (e *Engine) publish(ctx context.Context, key string, event any, reqID string) {
	if err := e.pub.Publish(context.WithoutCancel(ctx), e.exchange, key, event, reqID); err != nil {
		log.WithDD(ctx, e.log).Warn("publish event", zap.String("key", key), zap.Error(err))
	}
}

func displayName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "error"
}
