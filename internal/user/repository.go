package user

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const selectColumns = "id, username, name, email, role, position, department, age, created_at"

// Repository provides CRUD operations and credential checks for users.
type Repository struct {
	db   *sql.DB
	cost int
}

// NewRepository creates a user repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, cost: bcrypt.DefaultCost}
}

// NewRepositoryWithCost creates a user repository with a custom bcrypt cost.
// Tests use bcrypt.MinCost to stay fast.
func NewRepositoryWithCost(db *sql.DB, cost int) *Repository {
	return &Repository{db: db, cost: cost}
}

// Create adds a user with a hashed password.
func (r *Repository) Create(p CreateParams) (*User, error) {
	p.Username = strings.TrimSpace(p.Username)
	if p.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if p.Password == "" {
		return nil, fmt.Errorf("password is required")
	}
	role, err := ParseRole(string(p.Role))
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	result, err := r.db.Exec(
		`INSERT INTO users (username, name, email, password_hash, role, position, department, age)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Username, strings.TrimSpace(p.Name), strings.TrimSpace(p.Email), string(hash),
		string(role), p.Position, p.Department, p.Age,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("user already exists: %s", p.Username)
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(id int64) (*User, error) {
	return r.getOne("SELECT "+selectColumns+" FROM users WHERE id = ?", id)
}

// GetByUsername returns a user by username.
func (r *Repository) GetByUsername(username string) (*User, error) {
	return r.getOne("SELECT "+selectColumns+" FROM users WHERE username = ?", username)
}

// List returns all users ordered by username.
func (r *Repository) List() ([]*User, error) {
	rows, err := r.db.Query("SELECT " + selectColumns + " FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// CountByRole returns how many users hold the given role.
func (r *Repository) CountByRole(role Role) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = ?", string(role)).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// Authenticate checks a username/password pair and returns the user.
// Unknown users and wrong passwords produce the same error.
func (r *Repository) Authenticate(username, password string) (*User, error) {
	var id int64
	var hash string
	err := r.db.QueryRow(
		"SELECT id, password_hash FROM users WHERE username = ?", username,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return r.GetByID(id)
}

func (r *Repository) getOne(query string, arg interface{}) (*User, error) {
	u, err := scanUser(r.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (*User, error) {
	var u User
	var role string
	var age sql.NullInt64
	if err := s.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &role,
		&u.Position, &u.Department, &age, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Role = Role(role)
	if age.Valid {
		u.Age = &age.Int64
	}
	return &u, nil
}
