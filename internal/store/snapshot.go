package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a recorded landmark set and the segments computed from it.
type Snapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Variant   int             `json:"variant"`
	Landmarks json.RawMessage `json:"landmarks"`
	Segments  json.RawMessage `json:"segments"`
	CreatedAt time.Time       `json:"created_at"`
}

// SnapshotRepository provides operations for overlay snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot, assigning a new ID when it has none.
func (r *SnapshotRepository) Create(sn *Snapshot) error {
	if sn.ID == "" {
		sn.ID = uuid.New().String()
	}
	sn.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, name, variant, landmarks, segments, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sn.ID, sn.Name, sn.Variant, string(sn.Landmarks), string(sn.Segments), sn.CreatedAt,
	)
	return err
}

// Get retrieves a snapshot by ID.
func (r *SnapshotRepository) Get(id string) (*Snapshot, error) {
	sn := &Snapshot{}
	var landmarks, segments string

	err := r.db.QueryRow(
		`SELECT id, name, variant, landmarks, segments, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	).Scan(&sn.ID, &sn.Name, &sn.Variant, &landmarks, &segments, &sn.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sn.Landmarks = json.RawMessage(landmarks)
	sn.Segments = json.RawMessage(segments)
	return sn, nil
}

// List retrieves all snapshots, newest first.
func (r *SnapshotRepository) List() ([]*Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, name, variant, landmarks, segments, created_at
		 FROM snapshots ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		sn := &Snapshot{}
		var landmarks, segments string
		if err := rows.Scan(&sn.ID, &sn.Name, &sn.Variant, &landmarks, &segments, &sn.CreatedAt); err != nil {
			return nil, err
		}
		sn.Landmarks = json.RawMessage(landmarks)
		sn.Segments = json.RawMessage(segments)
		snapshots = append(snapshots, sn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Delete removes a snapshot by ID.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}
