package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
)

func issuesOf(t *testing.T, err error) []domain.FieldIssue {
	t.Helper()
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
	return vErr.Issues
}

func paths(issues []domain.FieldIssue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Path)
	}
	return out
}

func TestDecode_EmptyTitle(t *testing.T) {
	t.Parallel()

	var req transport.CreateTaskRequest
	err := Decode([]byte(`{"title":""}`), &req)

	issues := issuesOf(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "title", issues[0].Path)
	assert.Equal(t, "Required", issues[0].Message)
}

func TestDecode_ReportsEveryIssue(t *testing.T) {
	t.Parallel()

	var req transport.RegisterRequest
	err := Decode([]byte(`{"email":"nope","password":"123"}`), &req)

	issues := issuesOf(t, err)
	assert.ElementsMatch(t, []string{"email", "password", "name"}, paths(issues))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestDecode_LengthAndEnumMessages(t *testing.T) {
	t.Parallel()

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	body := []byte(`{"title":"` + string(long) + `","status":"done"}`)

	var req transport.CreateTaskRequest
	issues := issuesOf(t, Decode(body, &req))

	byPath := map[string]string{}
	for _, issue := range issues {
		byPath[issue.Path] = issue.Message
	}
	assert.Equal(t, "String must contain at most 200 character(s)", byPath["title"])
	assert.Contains(t, byPath["status"], "in-progress")
}

func TestDecode_PartialUpdateAcceptsEmptyObject(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{}`, ``, `  `} {
		var req transport.UpdateTaskRequest
		require.NoError(t, Decode([]byte(body), &req), "body %q", body)
		assert.True(t, req.Patch().IsEmpty())
	}
}

func TestDecode_PartialUpdateStillChecksPresentFields(t *testing.T) {
	t.Parallel()

	var req transport.UpdateTaskRequest
	issues := issuesOf(t, Decode([]byte(`{"title":""}`), &req))
	assert.Equal(t, []string{"title"}, paths(issues))
}

func TestDecode_MalformedJSON(t *testing.T) {
	t.Parallel()

	var req transport.CreateTaskRequest
	issues := issuesOf(t, Decode([]byte(`{"title":`), &req))
	require.Len(t, issues, 1)
	assert.Equal(t, "Malformed JSON body", issues[0].Message)

	issues = issuesOf(t, Decode([]byte(`{"title":42}`), &req))
	require.Len(t, issues, 1)
	assert.Equal(t, "title", issues[0].Path)
}

func TestDecode_PreferencesEnums(t *testing.T) {
	t.Parallel()

	var req transport.UpdatePreferencesRequest
	issues := issuesOf(t, Decode([]byte(`{"theme":"neon","defaultTaskStatus":"later"}`), &req))
	assert.ElementsMatch(t, []string{"theme", "defaultTaskStatus"}, paths(issues))

	req = transport.UpdatePreferencesRequest{}
	require.NoError(t, Decode([]byte(`{"theme":"dark","weeklyDigest":true}`), &req))
	require.NotNil(t, req.Theme)
	assert.Equal(t, "dark", *req.Theme)
}
