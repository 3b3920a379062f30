package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dexter/pkg/domain"
	"dexter/pkg/schema"
)

const migrateLockID int64 = 41310331

type GormStoreOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Metrics         *Metrics
	SkipMigrate     bool
	LogLevel        gormlogger.LogLevel
}

type GormStoreOption func(*GormStoreOptions)

// WithPool sizes the connection pool.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
		opts.ConnMaxLifetime = lifetime
	}
}

// WithMetrics records rejections and transaction latency on m.
func WithMetrics(m *Metrics) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.Metrics = m
	}
}

// WithLogLevel sets the SQL logger level. The default is warn.
func WithLogLevel(level gormlogger.LogLevel) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.LogLevel = level
	}
}

// WithoutMigrate skips schema creation on open.
func WithoutMigrate() GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.SkipMigrate = true
	}
}

// GormStore implements Store using GORM + Postgres. The pool is owned by the
// value returned from NewGormStore and released by Close.
type GormStore struct {
	db      *gorm.DB
	metrics *Metrics
}

// NewGormStore opens the DB, sizes the pool and applies the schema.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{LogLevel: gormlogger.Warn}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}

	gormLog := gormlogger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	s := &GormStore{db: db, metrics: opts.Metrics}
	if !opts.SkipMigrate {
		if err := s.Migrate(context.Background()); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrate applies the schema DDL under an advisory lock so concurrent
// processes do not race on CREATE TYPE.
func (s *GormStore) Migrate(ctx context.Context) error {
	return withMigrationLock(ctx, s.db, func(tx *gorm.DB) error {
		for _, stmt := range schema.DDL() {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	})
}

func withMigrationLock(ctx context.Context, db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db.WithContext(ctx))
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn inside a database transaction.
func (s *GormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	start := time.Now()
	defer s.metrics.observeTx(start)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, metrics: s.metrics})
	})
	// Commit-time failures (deferred foreign keys) still carry the engine error.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return s.fail(err)
	}
	return err
}

func (s *GormStore) fail(err error) error {
	return s.metrics.reject(translateError(err))
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// affected turns a zero-row write into ErrNotFound.
func (s *GormStore) affected(res *gorm.DB) error {
	if res.Error != nil {
		return s.fail(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) first(ctx context.Context, dest any, query string, args ...any) error {
	if err := s.conn(ctx).Where(query, args...).First(dest).Error; err != nil {
		return s.fail(err)
	}
	return nil
}

// CreateUser inserts a user. Duplicate emails yield ErrConflict.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	if err := validate(u); err != nil {
		return domain.User{}, s.metrics.reject(err)
	}
	u.ID = ensureID(u.ID)
	u.CreatedAt = stamp(u.CreatedAt)
	u.UpdatedAt = stamp(u.UpdatedAt)
	model := userToModel(u)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.User{}, s.fail(err)
	}
	return userFromModel(model), nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	var model UserModel
	if err := s.first(ctx, &model, "id = ?", id); err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var model UserModel
	if err := s.first(ctx, &model, "email = ?", strings.TrimSpace(email)); err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// UpdateUser overwrites the mutable profile columns.
func (s *GormStore) UpdateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if err := validate(u); err != nil {
		return domain.User{}, s.metrics.reject(err)
	}
	u.UpdatedAt = time.Now().UTC()
	res := s.conn(ctx).Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":           u.Name,
		"email":          strings.TrimSpace(u.Email),
		"email_verified": u.EmailVerified,
		"image":          u.Image,
		"updated_at":     u.UpdatedAt,
	})
	if err := s.affected(res); err != nil {
		return domain.User{}, err
	}
	return s.GetUser(ctx, u.ID)
}

// DeleteUser removes the user; the engine cascades to every dependent row.
func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	return s.affected(s.conn(ctx).Delete(&UserModel{}, "id = ?", id))
}

func (s *GormStore) LinkAccount(ctx context.Context, a domain.Account) error {
	if err := validate(a); err != nil {
		return s.metrics.reject(err)
	}
	model := accountToModel(a)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return s.fail(err)
	}
	return nil
}

// UpdateAccountTokens refreshes the token columns of a linked account.
func (s *GormStore) UpdateAccountTokens(ctx context.Context, a domain.Account) error {
	res := s.conn(ctx).Model(&AccountModel{}).
		Where("provider = ? AND provider_account_id = ?", a.Provider, a.ProviderAccountID).
		Updates(map[string]any{
			"refresh_token": a.RefreshToken,
			"access_token":  a.AccessToken,
			"expires_at":    a.ExpiresAt,
			"token_type":    a.TokenType,
			"scope":         a.Scope,
			"id_token":      a.IDToken,
			"session_state": a.SessionState,
		})
	return s.affected(res)
}

func (s *GormStore) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error) {
	rel := schema.MustRelation(schema.RelAccountUser)
	var model UserModel
	err := s.conn(ctx).
		Joins(fmt.Sprintf("JOIN %q ON %s", schema.TableName(rel.Source), rel.JoinClause())).
		Where(fmt.Sprintf("%q.provider = ? AND %q.provider_account_id = ?",
			schema.TableName(rel.Source), schema.TableName(rel.Source)), provider, providerAccountID).
		First(&model).Error
	if err != nil {
		return domain.User{}, s.fail(err)
	}
	return userFromModel(model), nil
}

func (s *GormStore) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	return s.affected(s.conn(ctx).
		Delete(&AccountModel{}, "provider = ? AND provider_account_id = ?", provider, providerAccountID))
}

func (s *GormStore) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	return loadMany(ctx, s, schema.RelUserAccounts, userID, accountFromModel)
}

func (s *GormStore) CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	t.Name = strings.TrimSpace(t.Name)
	if err := validate(t); err != nil {
		return domain.Team{}, s.metrics.reject(err)
	}
	t.ID = ensureID(t.ID)
	t.CreatedAt = stamp(t.CreatedAt)
	model := teamToModel(t)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.Team{}, s.fail(err)
	}
	return teamFromModel(model), nil
}

func (s *GormStore) GetTeam(ctx context.Context, id string) (domain.Team, error) {
	var model TeamModel
	if err := s.first(ctx, &model, "id = ?", id); err != nil {
		return domain.Team{}, err
	}
	return teamFromModel(model), nil
}

func (s *GormStore) RenameTeam(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.metrics.reject(fmt.Errorf("%w: team name is required", ErrInvalidInput))
	}
	return s.affected(s.conn(ctx).Model(&TeamModel{}).Where("id = ?", id).Update("name", name))
}

func (s *GormStore) DeleteTeam(ctx context.Context, id string) error {
	return s.affected(s.conn(ctx).Delete(&TeamModel{}, "id = ?", id))
}

func (s *GormStore) AddTeamMember(ctx context.Context, m domain.TeamMember) error {
	if m.Role == "" {
		m.Role = domain.RoleMember
	}
	if err := validate(m); err != nil {
		return s.metrics.reject(err)
	}
	m.JoinedAt = stamp(m.JoinedAt)
	model := memberToModel(m)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *GormStore) ListTeamMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	var models []TeamMemberModel
	if err := s.conn(ctx).Where("team_id = ?", teamID).Order("joined_at ASC").Find(&models).Error; err != nil {
		return nil, s.fail(err)
	}
	out := make([]domain.TeamMember, 0, len(models))
	for _, m := range models {
		out = append(out, memberFromModel(m))
	}
	return out, nil
}

func (s *GormStore) CreateTeamInvite(ctx context.Context, inv domain.TeamInvite) (domain.TeamInvite, error) {
	if inv.Role == "" {
		inv.Role = domain.RoleMember
	}
	if inv.Status == "" {
		inv.Status = domain.InvitePending
	}
	inv.Email = strings.TrimSpace(inv.Email)
	if err := validate(inv); err != nil {
		return domain.TeamInvite{}, s.metrics.reject(err)
	}
	inv.ID = ensureID(inv.ID)
	inv.CreatedAt = stamp(inv.CreatedAt)
	model := inviteToModel(inv)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.TeamInvite{}, s.fail(err)
	}
	return inviteFromModel(model), nil
}

func (s *GormStore) GetTeamInviteByToken(ctx context.Context, token string) (domain.TeamInvite, error) {
	var model TeamInviteModel
	if err := s.first(ctx, &model, "token = ?", token); err != nil {
		return domain.TeamInvite{}, err
	}
	return inviteFromModel(model), nil
}

func (s *GormStore) SetInviteStatus(ctx context.Context, id string, status domain.InviteStatus) error {
	if !status.Valid() {
		return s.metrics.reject(invalidEnum("invite status", status))
	}
	return s.affected(s.conn(ctx).Model(&TeamInviteModel{}).Where("id = ?", id).Update("status", string(status)))
}

// ExpireInvites marks pending invites past their expiry and returns how many
// changed.
func (s *GormStore) ExpireInvites(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).Model(&TeamInviteModel{}).
		Where("status = ? AND expires_at < ?", string(domain.InvitePending), now.UTC()).
		Update("status", string(domain.InviteExpired))
	if res.Error != nil {
		return 0, s.fail(res.Error)
	}
	return res.RowsAffected, nil
}
