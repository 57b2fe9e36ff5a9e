package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentRepositoryEnrollSkipsDuplicates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WithArgs(sqlmock.AnyArg(), "course-1", "stud-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WithArgs(sqlmock.AnyArg(), "course-1", "stud-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Enroll(context.Background(), "course-1", []string{"stud-1", "stud-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryEnrollmentSummaries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"course_id", "course_code", "enrolled", "batches"}).
		AddRow("course-1", "CS101", 42, pq.StringArray{"2023-CS", "2024-CS"})
	mock.ExpectQuery("SELECT c.id AS course_id, c.code AS course_code, COUNT").
		WillReturnRows(rows)

	summaries, err := repo.EnrollmentSummaries(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 42, summaries[0].Enrolled)
	assert.Equal(t, pq.StringArray{"2023-CS", "2024-CS"}, summaries[0].Batches)
	assert.NoError(t, mock.ExpectationsWereMet())
}
