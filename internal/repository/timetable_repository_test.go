package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/scheduling-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryReplaceSessions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE timetable_id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "CS101", 0, "LECTURE", 0, 540, 600, "room-1", "inst-1", 30, "#3498db", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $2, is_generated = $3, generated_at = $4, updated_at = $4 WHERE id = $1")).
		WithArgs("tt-1", "COMPLETE", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sessions := []models.Session{
		{
			CourseCode:   "CS101",
			Sequence:     0,
			Type:         models.SessionLecture,
			Day:          models.Monday,
			Range:        models.TimeRange{Start: 540, End: 600},
			RoomID:       "room-1",
			InstructorID: "inst-1",
			SectionSize:  30,
			ColorTag:     "#3498db",
		},
	}

	require.NoError(t, repo.ReplaceSessions(context.Background(), "tt-1", models.SolveComplete, sessions))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteSessions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE timetable_id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $2, is_generated = FALSE, generated_at = NULL, updated_at = $3 WHERE id = $1")).
		WithArgs("tt-1", "UNSOLVED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.DeleteSessions(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Equal(t, 5, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListSessions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "timetable_id", "course_code", "sequence", "session_type", "day_of_week",
		"range.start_minute", "range.end_minute", "room_id", "instructor_id", "section_size", "color_tag", "created_at",
	}).AddRow("sess-1", "tt-1", "CS101", 0, "LECTURE", 0, 540, 600, "room-1", "inst-1", 30, "#3498db", time.Now())

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE timetable_id = .+ ORDER BY day_of_week ASC, start_minute ASC, room_id ASC").
		WithArgs("tt-1").
		WillReturnRows(rows)

	sessions, err := repo.ListSessions(context.Background(), "tt-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.TimeRange{Start: 540, End: 600}, sessions[0].Range)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceSessionsRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE timetable_id = $1")).
		WithArgs("tt-1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceSessions(context.Background(), "tt-1", models.SolveComplete, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
