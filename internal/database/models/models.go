package models

import "time"

// SystemConfig represents a key-value configuration entry.
type SystemConfig struct {
	ID        int64
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Room represents a statically registered conference room: the persisted
// counterpart of a meetme.conf [rooms] entry. PINHash/AdminPINHash are
// Argon2id-encoded, never stored in plaintext.
type Room struct {
	ID                int64
	Confno            string
	PINHash           string
	AdminPINHash      string
	MaxMembers        int
	Record            bool
	AnnounceJoinLeave bool
	IsDynamic         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
