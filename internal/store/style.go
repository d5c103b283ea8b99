package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/obitec/bodyway/internal/render"
)

// Style is a stored overlay variant.
type Style struct {
	Variant   int       `json:"variant"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Width     float64   `json:"width"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenderVariant converts the stored row to a render.Variant.
func (s *Style) RenderVariant() render.Variant {
	return render.Variant{
		ID:      s.Variant,
		Name:    s.Name,
		Color:   s.Color,
		Width:   s.Width,
		Visible: s.Visible,
	}
}

// StyleRepository provides CRUD operations for overlay styles.
type StyleRepository struct {
	db *sql.DB
}

// Styles returns the style repository for this store.
func (s *Store) Styles() *StyleRepository {
	return &StyleRepository{db: s.db}
}

// Create inserts a new style.
func (r *StyleRepository) Create(st *Style) error {
	now := time.Now()
	st.CreatedAt = now
	st.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO styles (variant, name, color, width, visible, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.Variant, st.Name, st.Color, st.Width, st.Visible, st.CreatedAt, st.UpdatedAt,
	)
	return err
}

// Get retrieves a style by its variant number.
func (r *StyleRepository) Get(variant int) (*Style, error) {
	st := &Style{}
	err := r.db.QueryRow(
		`SELECT variant, name, color, width, visible, created_at, updated_at
		 FROM styles WHERE variant = ?`,
		variant,
	).Scan(&st.Variant, &st.Name, &st.Color, &st.Width, &st.Visible, &st.CreatedAt, &st.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

// List retrieves all styles ordered by variant.
func (r *StyleRepository) List() ([]*Style, error) {
	rows, err := r.db.Query(
		`SELECT variant, name, color, width, visible, created_at, updated_at
		 FROM styles ORDER BY variant`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var styles []*Style
	for rows.Next() {
		st := &Style{}
		if err := rows.Scan(&st.Variant, &st.Name, &st.Color, &st.Width, &st.Visible, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		styles = append(styles, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return styles, nil
}

// Update updates an existing style.
func (r *StyleRepository) Update(st *Style) error {
	st.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE styles SET name = ?, color = ?, width = ?, visible = ?, updated_at = ?
		 WHERE variant = ?`,
		st.Name, st.Color, st.Width, st.Visible, st.UpdatedAt, st.Variant,
	)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

// Delete removes a style by its variant number.
func (r *StyleRepository) Delete(variant int) error {
	result, err := r.db.Exec(`DELETE FROM styles WHERE variant = ?`, variant)
	if err != nil {
		return err
	}
	return affectedOne(result)
}
