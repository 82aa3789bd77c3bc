package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JovenGabriel/users-api/internal/domain"
)

// Compile-time interface assertion.
var _ UserRepository = (*PostgresUserRepo)(nil)

const userColumns = `id, name, email, password_hash, last_login, token, is_active, created_at, updated_at`

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	user, err := r.scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	if err := r.attachPhones(ctx, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	if err := r.attachPhones(ctx, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PostgresUserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at`, userColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	index := make(map[int64]int)
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		index[user.ID] = len(users)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	phoneRows, err := r.db.Query(ctx, `SELECT id, user_id, number, city_code, country_code FROM phones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer phoneRows.Close()

	for phoneRows.Next() {
		var phone domain.Phone
		if err := phoneRows.Scan(&phone.ID, &phone.UserID, &phone.Number, &phone.CityCode, &phone.CountryCode); err != nil {
			return nil, fmt.Errorf("list phones: %w", err)
		}
		if i, ok := index[phone.UserID]; ok {
			users[i].Phones = append(users[i].Phones, phone)
		}
	}
	if err := phoneRows.Err(); err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}

	return users, nil
}

const insertUserSQL = `INSERT INTO users (id, name, email, password_hash, last_login, token, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

const insertPhoneSQL = `INSERT INTO phones (id, user_id, number, city_code, country_code)
VALUES ($1, $2, $3, $4, $5)`

// Create inserts the user and its phones in one transaction. The unique
// email constraint is the authoritative duplicate check.
func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.LastLogin,
		nullableString(user.Token),
		user.IsActive,
	)
	created, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	for _, phone := range user.Phones {
		if _, err := tx.Exec(ctx, insertPhoneSQL, phone.ID, created.ID, phone.Number, phone.CityCode, phone.CountryCode); err != nil {
			return domain.User{}, fmt.Errorf("create phone: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, fmt.Errorf("commit create user: %w", err)
	}

	created.Phones = user.Phones
	for i := range created.Phones {
		created.Phones[i].UserID = created.ID
	}
	return created, nil
}

const updateSessionSQL = `UPDATE users SET token = $2, last_login = $3, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

// UpdateSession overwrites the stored token and last-login timestamp,
// implicitly invalidating any previously issued token for the user.
func (r *PostgresUserRepo) UpdateSession(ctx context.Context, id int64, token string, lastLogin time.Time) (domain.User, error) {
	row := r.db.QueryRow(ctx, updateSessionSQL, id, nullableString(token), lastLogin)
	user, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("update session: %w", err)
	}
	if err := r.attachPhones(ctx, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PostgresUserRepo) attachPhones(ctx context.Context, user *domain.User) error {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, number, city_code, country_code FROM phones WHERE user_id = $1 ORDER BY id`, user.ID)
	if err != nil {
		return fmt.Errorf("load phones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var phone domain.Phone
		if err := rows.Scan(&phone.ID, &phone.UserID, &phone.Number, &phone.CityCode, &phone.CountryCode); err != nil {
			return fmt.Errorf("load phones: %w", err)
		}
		user.Phones = append(user.Phones, phone)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load phones: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) scanUser(row pgx.Row) (domain.User, error) {
	var (
		user      domain.User
		lastLogin sql.NullTime
		token     sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&lastLogin,
		&token,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, translateError(err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	user.Token = token.String
	return user, nil
}

func translateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
