package models

import (
	"time"

	"github.com/lib/pq"
)

// RoomType classifies rooms by the session types they host.
type RoomType string

const (
	RoomLectureHall  RoomType = "LECTURE_HALL"
	RoomLab          RoomType = "LAB"
	RoomTutorialRoom RoomType = "TUTORIAL_ROOM"
)

// Room represents a schedulable physical space.
type Room struct {
	ID        string         `db:"id" json:"id"`
	Building  string         `db:"building" json:"building"`
	Capacity  int            `db:"capacity" json:"capacity"`
	Type      RoomType       `db:"room_type" json:"room_type"`
	Equipment pq.StringArray `db:"equipment" json:"equipment,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`

	Windows []AvailabilityWindow `db:"-" json:"windows,omitempty"`
}

// HostsSessionType reports whether the room type matches a session type.
func (r Room) HostsSessionType(t SessionType) bool {
	switch t {
	case SessionLecture:
		return r.Type == RoomLectureHall
	case SessionLab:
		return r.Type == RoomLab
	case SessionTutorial:
		return r.Type == RoomTutorialRoom
	}
	return false
}

// RoomFilter captures supported filters for listing rooms.
type RoomFilter struct {
	Building    string
	Type        RoomType
	MinCapacity int
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
