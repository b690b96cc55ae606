package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/interview"
	"github.com/spigell/welfare-interviewer/internal/programs"
	"github.com/spigell/welfare-interviewer/internal/ranking"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	catalogue, err := programs.New(
		[]string{programs.ColumnVeteran, programs.ColumnMaxMonthlyIncome},
		[]programs.Row{
			{Program: "VETS", Description: "Veterans pension", Values: map[string]programs.Value{
				programs.ColumnVeteran:          programs.BoolValue(true),
				programs.ColumnMaxMonthlyIncome: programs.IntValue(1500),
			}},
			{Program: "FOOD", Description: "Food benefits", Values: map[string]programs.Value{
				programs.ColumnVeteran:          programs.BoolValue(false),
				programs.ColumnMaxMonthlyIncome: programs.IntValue(2500),
			}},
		},
	)
	require.NoError(t, err)

	engine := ranking.New(catalogue, nil)
	optimizer := selection.New(catalogue, nil)
	driver := interview.NewDriver(catalogue, optimizer, engine, ai.Collaborators{}, interview.Options{}, nil)
	coordinator := interview.NewCoordinator(interview.NewStore(), driver, nil)

	return NewRouter(coordinator, catalogue, optimizer, engine, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, "POST", "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var reply interview.Reply
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
	assert.Equal(t, interview.StageShortlist, reply.Stage)
	require.NotNil(t, reply.Question)
	assert.Equal(t, ai.DefaultOpenQuestion, reply.Question.Text)

	path := "/api/v1/sessions/" + reply.SessionID.String()

	w = do(t, router, "POST", path+"/messages", MessageRequest{Text: "I need help paying for food"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
	assert.Equal(t, interview.StageRanking, reply.Stage)
	require.NotNil(t, reply.Question)
	assert.NotEmpty(t, reply.Question.Field)

	for !reply.Done {
		w = do(t, router, "POST", path+"/messages", MessageRequest{Text: "no"})
		require.Equal(t, http.StatusOK, w.Code)
		reply = interview.Reply{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
	}
	assert.NotEmpty(t, reply.Programs)

	w = do(t, router, "GET", path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap interview.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.True(t, snap.Done)
	assert.Equal(t, reply.SessionID, snap.ID)

	w = do(t, router, "POST", path+"/messages", MessageRequest{Text: "one more thing"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, "DELETE", path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, "GET", path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "invalid id", method: "GET", path: "/api/v1/sessions/not-a-uuid", want: http.StatusBadRequest},
		{name: "unknown session", method: "POST", path: "/api/v1/sessions/" + uuid.NewString() + "/messages", body: MessageRequest{Text: "hi"}, want: http.StatusNotFound},
		{name: "unknown delete", method: "DELETE", path: "/api/v1/sessions/" + uuid.NewString(), want: http.StatusNotFound},
		{name: "broken body", method: "POST", path: "/api/v1/sessions/" + uuid.NewString() + "/messages", body: "{", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestEmptyAnswerIsRejected(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, "POST", "/api/v1/sessions", nil)
	var reply interview.Reply
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))

	w = do(t, router, "POST", "/api/v1/sessions/"+reply.SessionID.String()+"/messages", MessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrograms(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, "GET", "/api/v1/programs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []programs.Program
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "VETS", got[0].ID)
	assert.Equal(t, "Food benefits", got[1].Description)
}

func TestRank(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, "POST", "/api/v1/rank", map[string]any{
		"profile": map[string]any{"monthly_income": "$2,000", "is_veteran": "no"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RankResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"FOOD", "VETS"}, resp.Programs)
	assert.Equal(t, ranking.Baseline+3, resp.Results[0].Score)
	assert.Equal(t, ranking.Baseline-100-9, resp.Results[1].Score)

	w = do(t, router, "POST", "/api/v1/rank", map[string]any{"profile": map[string]any{}, "programs": []string{}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Programs)

	w = do(t, router, "POST", "/api/v1/rank", map[string]any{"profile": map[string]any{"shoe_size": 9}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFields(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, "POST", "/api/v1/fields", FieldsRequest{Asked: []string{programs.ColumnMaxMonthlyIncome}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp FieldsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{programs.ColumnVeteran}, resp.Fields)
	require.Len(t, resp.Scores, 1)

	w = do(t, router, "POST", "/api/v1/fields", FieldsRequest{Eliminated: []string{"VETS", "FOOD"}})
	require.Equal(t, http.StatusOK, w.Code)
	resp = FieldsResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Fields)
	assert.Empty(t, resp.Scores)

	w = do(t, router, "POST", "/api/v1/fields", FieldsRequest{Top: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	do(t, router, "GET", "/api/v1/programs", nil)

	w = do(t, router, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}
