package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/internal/service"
)

type courseRepoStub struct {
	courses map[string]models.Course
}

func newCourseRepoStub() *courseRepoStub {
	return &courseRepoStub{courses: map[string]models.Course{}}
}

func (s *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(s.courses))
	for _, course := range s.courses {
		out = append(out, course)
	}
	return out, len(out), nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func (s *courseRepoStub) ExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, course := range s.courses {
		if course.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	s.courses[course.ID] = *course
	return nil
}

func (s *courseRepoStub) Update(ctx context.Context, course *models.Course) error {
	if _, ok := s.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	s.courses[course.ID] = *course
	return nil
}

func (s *courseRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.courses, id)
	return nil
}

type responseEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newCourseHandlerForTest(repo *courseRepoStub) *CourseHandler {
	return NewCourseHandler(service.NewCourseService(repo, nil, nil))
}

func TestCourseHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newCourseRepoStub()
	handler := newCourseHandlerForTest(repo)

	payload := `{"code":"CS101","name":"Programming","sessionType":"LECTURE","hoursPerWeek":3,"department":"CS"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var course models.Course
	require.NoError(t, json.Unmarshal(envelope.Data, &course))
	assert.Equal(t, "CS101", course.Code)
	assert.NotEmpty(t, course.ID)
	assert.Len(t, repo.courses, 1)
}

func TestCourseHandlerCreateDuplicateCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newCourseRepoStub()
	repo.courses["c-1"] = models.Course{ID: "c-1", Code: "CS101"}
	handler := newCourseHandlerForTest(repo)

	payload := `{"code":"CS101","name":"Programming","sessionType":"LECTURE","hoursPerWeek":3,"department":"CS"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}

func TestCourseHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerForTest(newCourseRepoStub())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerForTest(newCourseRepoStub())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestCourseHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newCourseRepoStub()
	repo.courses["c-1"] = models.Course{ID: "c-1", Code: "CS101"}
	handler := newCourseHandlerForTest(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/courses/c-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.courses)
}
