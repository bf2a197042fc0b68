package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/log"
)

const (
	colUsers      = "users"
	colAccounts   = "accounts"
	colWorkspaces = "workspaces"
	colRoles      = "roles"
	colMembers    = "members"
)

var (
	ErrDuplicate     = fmt.Errorf("%w: duplicate key", domain.ErrConflict)
	ErrWriteConflict = fmt.Errorf("%w: write conflict", domain.ErrConflict)
	ErrNotFound      = fmt.Errorf("%w: document", domain.ErrNotFound)
)

// Tx is a transaction handle handed out by WithTx. Every store call of one
// logical operation receives the same handle; a nil Tx runs the call on its own.
type Tx interface {
	txHandle()
}

type mongoTx struct {
	sess mongo.Session
}

func (*mongoTx) txHandle() {}

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database

	users      *mongo.Collection
	accounts   *mongo.Collection
	workspaces *mongo.Collection
	roles      *mongo.Collection
	members    *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string, opts ...*options.ClientOptions) (*Store, error) {
	clientOpts := append([]*options.ClientOptions{
		options.Client().
			ApplyURI(uri).
			SetRetryWrites(true).
			SetMaxPoolSize(50),
	}, opts...)
	cli, err := mongo.Connect(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{
		Client:     cli,
		DB:         db,
		users:      db.Collection(colUsers),
		accounts:   db.Collection(colAccounts),
		workspaces: db.Collection(colWorkspaces),
		roles:      db.Collection(colRoles),
		members:    db.Collection(colMembers),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// WithTx runs fn inside one multi-document transaction. The transaction is
// committed when fn returns nil and aborted otherwise; fn's error is returned
// as is. The session is ended on every path. Transactions are not retried.
func (s *Store) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sess, err := s.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.Background())

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txOpts); err != nil {
		return err
	}

	if err := fn(&mongoTx{sess: sess}); err != nil {
		if abortErr := sess.AbortTransaction(context.Background()); abortErr != nil {
			log.WithDD(ctx, log.L()).Warn("abort transaction", zap.Error(abortErr), zap.NamedError("cause", err))
		}
		return err
	}
	return mapErr(sess.CommitTransaction(ctx))
}

// opCtx binds ctx to the session of tx, if any.
func (s *Store) opCtx(ctx context.Context, tx Tx) context.Context {
	if mt, ok := tx.(*mongoTx); ok && mt != nil {
		return mongo.NewSessionContext(ctx, mt.sess)
	}
	return ctx
}

func startSpan(ctx context.Context, op string, opts ...tracer.StartSpanOption) ddtrace.Span {
	sp, _ := tracer.StartSpanFromContext(ctx, op, opts...)
	return sp
}

// EnsureIndexes creates the unique indexes the provisioning invariants rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	if _, err := s.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "provider_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_provider_provider_id"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
	}); err != nil {
		return fmt.Errorf("accounts indexes: %w", err)
	}

	if _, err := s.workspaces.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetName("owner"),
		},
		{
			Keys:    bson.D{{Key: "invite_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_invite_code"),
		},
	}); err != nil {
		return fmt.Errorf("workspaces indexes: %w", err)
	}

	if _, err := s.roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_name"),
	}); err != nil {
		return fmt.Errorf("roles indexes: %w", err)
	}

	if _, err := s.members.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "workspace_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_workspace"),
	}); err != nil {
		return fmt.Errorf("members indexes: %w", err)
	}
	return nil
}

func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}

// IsWriteConflict reports a concurrent transaction touching the same document.
func IsWriteConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(112)
}

// mapErr tags uniqueness and write conflicts with the store sentinels while
// keeping the driver error in the chain.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case IsDup(err):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case IsWriteConflict(err):
		return fmt.Errorf("%w: %w", ErrWriteConflict, err)
	}
	return err
}
