package repo

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/helper"
)

// Memory is an in-process entity store with the same method set and
// uniqueness rules as Store. Transactions are serializable: WithTx holds the
// store lock for the whole callback and works on a private copy that replaces
// the committed state only when the callback succeeds.
//
// A call made with a nil Tx from inside a WithTx callback deadlocks; always
// pass the handle along.
type Memory struct {
	mu   sync.Mutex
	data *memData
}

type memTx struct {
	data *memData
}

func (*memTx) txHandle() {}

type memData struct {
	users      map[primitive.ObjectID]domain.User
	accounts   map[primitive.ObjectID]domain.Account
	workspaces map[primitive.ObjectID]domain.Workspace
	roles      map[primitive.ObjectID]domain.Role
	members    map[primitive.ObjectID]domain.Member
}

// MemoryStats counts rows per entity.
type MemoryStats struct {
	Users, Accounts, Workspaces, Roles, Members int
}

func NewMemory() *Memory {
	return &Memory{data: newMemData()}
}

func newMemData() *memData {
	return &memData{
		users:      map[primitive.ObjectID]domain.User{},
		accounts:   map[primitive.ObjectID]domain.Account{},
		workspaces: map[primitive.ObjectID]domain.Workspace{},
		roles:      map[primitive.ObjectID]domain.Role{},
		members:    map[primitive.ObjectID]domain.Member{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.workspaces {
		c.workspaces[k] = v
	}
	for k, v := range d.roles {
		c.roles[k] = v
	}
	for k, v := range d.members {
		c.members[k] = v
	}
	return c
}

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) EnsureIndexes(context.Context) error { return nil }

func (m *Memory) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{data: m.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.data = tx.data
	return nil
}

// with runs fn against the transaction's copy, or against the committed
// state under the lock when tx is nil.
func (m *Memory) with(ctx context.Context, tx Tx, fn func(d *memData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if mt, ok := tx.(*memTx); ok && mt != nil {
		return fn(mt.data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.data)
}

func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MemoryStats{
		Users:      len(m.data.users),
		Accounts:   len(m.data.accounts),
		Workspaces: len(m.data.workspaces),
		Roles:      len(m.data.roles),
		Members:    len(m.data.members),
	}
}

func (m *Memory) FindUserByEmail(ctx context.Context, tx Tx, email string) (*domain.User, error) {
	var out *domain.User
	err := m.with(ctx, tx, func(d *memData) error {
		for _, u := range d.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (m *Memory) FindUserByID(ctx context.Context, tx Tx, id primitive.ObjectID) (*domain.User, error) {
	var out *domain.User
	err := m.with(ctx, tx, func(d *memData) error {
		if u, ok := d.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (m *Memory) CreateUser(ctx context.Context, tx Tx, u *domain.User) error {
	return m.with(ctx, tx, func(d *memData) error {
		for _, existing := range d.users {
			if existing.Email == u.Email {
				return ErrDuplicate
			}
		}
		now := time.Now().UTC()
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = *u
		return nil
	})
}

func (m *Memory) UpdateUser(ctx context.Context, tx Tx, id primitive.ObjectID, p domain.UserPatch) error {
	return m.with(ctx, tx, func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		if p.Empty() {
			return nil
		}
		if p.LastLogin != nil {
			t := p.LastLogin.UTC()
			u.LastLogin = &t
		}
		if p.CurrentWorkspace != nil {
			w := *p.CurrentWorkspace
			u.CurrentWorkspace = &w
		}
		u.UpdatedAt = time.Now().UTC()
		d.users[id] = u
		return nil
	})
}

func (m *Memory) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	var n int64
	err := m.with(ctx, nil, func(d *memData) error {
		for _, u := range d.users {
			if u.Email == email {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (m *Memory) CreateAccount(ctx context.Context, tx Tx, a *domain.Account) error {
	return m.with(ctx, tx, func(d *memData) error {
		for _, existing := range d.accounts {
			if existing.Provider == a.Provider && existing.ProviderID == a.ProviderID {
				return ErrDuplicate
			}
		}
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		a.CreatedAt = time.Now().UTC()
		d.accounts[a.ID] = *a
		return nil
	})
}

func (m *Memory) FindAccount(ctx context.Context, tx Tx, provider, providerID string) (*domain.Account, error) {
	var out *domain.Account
	err := m.with(ctx, tx, func(d *memData) error {
		for _, a := range d.accounts {
			if a.Provider == provider && a.ProviderID == providerID {
				a := a
				out = &a
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (m *Memory) CreateWorkspace(ctx context.Context, tx Tx, w *domain.Workspace) error {
	return m.with(ctx, tx, func(d *memData) error {
		if w.InviteCode == "" {
			w.InviteCode = helper.InviteCode()
		}
		for _, existing := range d.workspaces {
			if existing.InviteCode == w.InviteCode {
				return ErrDuplicate
			}
		}
		now := time.Now().UTC()
		if w.ID.IsZero() {
			w.ID = primitive.NewObjectID()
		}
		w.CreatedAt, w.UpdatedAt = now, now
		d.workspaces[w.ID] = *w
		return nil
	})
}

func (m *Memory) FindWorkspaceByID(ctx context.Context, tx Tx, id primitive.ObjectID) (*domain.Workspace, error) {
	var out *domain.Workspace
	err := m.with(ctx, tx, func(d *memData) error {
		if w, ok := d.workspaces[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

func (m *Memory) FindRoleByName(ctx context.Context, tx Tx, name string) (*domain.Role, error) {
	var out *domain.Role
	err := m.with(ctx, tx, func(d *memData) error {
		for _, r := range d.roles {
			if r.Name == name {
				r.Permissions = append([]string(nil), r.Permissions...)
				out = &r
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (m *Memory) FindRoleByID(ctx context.Context, tx Tx, id primitive.ObjectID) (*domain.Role, error) {
	var out *domain.Role
	err := m.with(ctx, tx, func(d *memData) error {
		if r, ok := d.roles[id]; ok {
			r.Permissions = append([]string(nil), r.Permissions...)
			out = &r
		}
		return nil
	})
	return out, err
}

func (m *Memory) CreateRole(ctx context.Context, tx Tx, r *domain.Role) error {
	return m.with(ctx, tx, func(d *memData) error {
		for _, existing := range d.roles {
			if existing.Name == r.Name {
				return ErrDuplicate
			}
		}
		now := time.Now().UTC()
		if r.ID.IsZero() {
			r.ID = primitive.NewObjectID()
		}
		r.CreatedAt, r.UpdatedAt = now, now
		stored := *r
		stored.Permissions = append([]string(nil), r.Permissions...)
		d.roles[r.ID] = stored
		return nil
	})
}

func (m *Memory) ReplaceAllRoles(ctx context.Context, tx Tx, roles []domain.Role) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(roles))
	err := m.with(ctx, tx, func(d *memData) error {
		fresh := make(map[primitive.ObjectID]domain.Role, len(roles))
		names := make(map[string]struct{}, len(roles))
		now := time.Now().UTC()
		for _, r := range roles {
			if _, dup := names[r.Name]; dup {
				return ErrDuplicate
			}
			names[r.Name] = struct{}{}
			r.ID = primitive.NewObjectID()
			r.Permissions = append([]string(nil), r.Permissions...)
			r.CreatedAt, r.UpdatedAt = now, now
			fresh[r.ID] = r
			out = append(out, r)
		}
		d.roles = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Memory) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var out []domain.Role
	err := m.with(ctx, nil, func(d *memData) error {
		for _, r := range d.roles {
			r.Permissions = append([]string(nil), r.Permissions...)
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

func (m *Memory) CreateMember(ctx context.Context, tx Tx, mb *domain.Member) error {
	return m.with(ctx, tx, func(d *memData) error {
		for _, existing := range d.members {
			if existing.UserID == mb.UserID && existing.WorkspaceID == mb.WorkspaceID {
				return ErrDuplicate
			}
		}
		now := time.Now().UTC()
		if mb.ID.IsZero() {
			mb.ID = primitive.NewObjectID()
		}
		if mb.JoinedAt.IsZero() {
			mb.JoinedAt = now
		}
		mb.CreatedAt, mb.UpdatedAt = now, now
		d.members[mb.ID] = *mb
		return nil
	})
}

func (m *Memory) FindMember(ctx context.Context, tx Tx, userID, workspaceID primitive.ObjectID) (*domain.Member, error) {
	var out *domain.Member
	err := m.with(ctx, tx, func(d *memData) error {
		for _, mb := range d.members {
			if mb.UserID == userID && mb.WorkspaceID == workspaceID {
				mb := mb
				out = &mb
				return nil
			}
		}
		return nil
	})
	return out, err
}
