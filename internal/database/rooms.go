package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meetme/conferencebridge/internal/database/models"
)

// roomRepo implements RoomRepository.
type roomRepo struct {
	db *DB
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(db *DB) RoomRepository {
	return &roomRepo{db: db}
}

// Create inserts a new room registration.
func (r *roomRepo) Create(ctx context.Context, room *models.Room) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (confno, pin_hash, admin_pin_hash, max_members, record,
		 announce_join_leave, is_dynamic, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		room.Confno, room.PINHash, room.AdminPINHash, room.MaxMembers,
		room.Record, room.AnnounceJoinLeave, room.IsDynamic,
	)
	if err != nil {
		return fmt.Errorf("inserting room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	room.ID = id
	return nil
}

// GetByConfno returns a room by its conference number. Returns nil, nil if
// no row matches — the caller falls back to treating the room as dynamic.
func (r *roomRepo) GetByConfno(ctx context.Context, confno string) (*models.Room, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, confno, pin_hash, admin_pin_hash, max_members, record,
		 announce_join_leave, is_dynamic, created_at, updated_at
		 FROM rooms WHERE confno = ?`, confno,
	))
}

// List returns all registered rooms ordered by confno.
func (r *roomRepo) List(ctx context.Context) ([]models.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, confno, pin_hash, admin_pin_hash, max_members, record,
		 announce_join_leave, is_dynamic, created_at, updated_at
		 FROM rooms ORDER BY confno`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var rm models.Room
		if err := rows.Scan(&rm.ID, &rm.Confno, &rm.PINHash, &rm.AdminPINHash,
			&rm.MaxMembers, &rm.Record, &rm.AnnounceJoinLeave, &rm.IsDynamic,
			&rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

// Update modifies an existing room registration.
func (r *roomRepo) Update(ctx context.Context, room *models.Room) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET pin_hash = ?, admin_pin_hash = ?, max_members = ?,
		 record = ?, announce_join_leave = ?, is_dynamic = ?, updated_at = datetime('now')
		 WHERE confno = ?`,
		room.PINHash, room.AdminPINHash, room.MaxMembers, room.Record,
		room.AnnounceJoinLeave, room.IsDynamic, room.Confno,
	)
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}
	return nil
}

// Delete removes a room registration by confno.
func (r *roomRepo) Delete(ctx context.Context, confno string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE confno = ?`, confno)
	if err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}
	return nil
}

func (r *roomRepo) scanOne(row *sql.Row) (*models.Room, error) {
	var rm models.Room
	err := row.Scan(&rm.ID, &rm.Confno, &rm.PINHash, &rm.AdminPINHash,
		&rm.MaxMembers, &rm.Record, &rm.AnnounceJoinLeave, &rm.IsDynamic,
		&rm.CreatedAt, &rm.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning room: %w", err)
	}
	return &rm, nil
}
