package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wajed-network/bridge/pkg/checks"
	"github.com/wajed-network/bridge/pkg/config"
	"github.com/wajed-network/bridge/pkg/roles"
)

func assignRequest(params map[string]string) *http.Request {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return httptest.NewRequest(http.MethodGet, "/assign-role?"+q.Encode(), http.NoBody)
}

func TestBridge_assignRole(t *testing.T) {
	tests := []struct {
		name       string
		params     map[string]string
		notReady   bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "add role",
			params:     map[string]string{"userId": memberUser, "roleId": roleID, "action": "add"},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"action":"add","userId":"member","roleId":"role","memberRoles":["role"]}`,
		},
		{
			name:       "remove missing role",
			params:     map[string]string{"userId": memberUser, "roleId": roleID, "action": "remove"},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"action":"remove","userId":"member","roleId":"role","memberRoles":[]}`,
		},
		{
			name:       "missing parameters",
			params:     map[string]string{"userId": memberUser, "roleId": roleID},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Missing required parameters"}`,
		},
		{
			name:       "invalid action",
			params:     map[string]string{"userId": memberUser, "roleId": roleID, "action": "toggle"},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid action"}`,
		},
		{
			name:       "bot not ready",
			params:     map[string]string{"userId": memberUser, "roleId": roleID, "action": "add"},
			notReady:   true,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"Bot not ready"}`,
		},
		{
			name:       "unknown member",
			params:     map[string]string{"userId": "stranger", "roleId": roleID, "action": "add"},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Member not found"}`,
		},
		{
			name:       "unknown role",
			params:     map[string]string{"userId": memberUser, "roleId": "ghost", "action": "add"},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Role not found"}`,
		},
		{
			name:       "role above bot",
			params:     map[string]string{"userId": memberUser, "roleId": "mod", "action": "add"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Bot's highest role is not high enough to manage this role"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestBridge(t)
			tb.gw.ready = !tt.notReady

			rec := httptest.NewRecorder()
			tb.assignRole(rec, assignRequest(tt.params))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestBridge_assignRole_UnknownGuild(t *testing.T) {
	tb := newTestBridge(t)
	tb.cfg.Discord.RolesGuildID = "elsewhere"

	rec := httptest.NewRecorder()
	tb.assignRole(rec, assignRequest(map[string]string{"userId": memberUser, "roleId": roleID, "action": "add"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Guild not found"}`, rec.Body.String())
}

func TestBridge_assignRole_AddTwice(t *testing.T) {
	tb := newTestBridge(t)
	params := map[string]string{"userId": memberUser, "roleId": roleID, "action": "add"}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		tb.assignRole(rec, assignRequest(params))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"action":"add","userId":"member","roleId":"role","memberRoles":["role"]}`, rec.Body.String())
	}

	assert.Equal(t, 1, tb.discord.adds)
	assert.Equal(t, []string{roleID}, tb.discord.memberRoles(rolesGuild))
	assert.Empty(t, tb.notes.sent)
}

func qcmRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/process-qcm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBridge_processQCM(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAction roles.Action
		wantBody   string
		wantRoles  []string
	}{
		{
			name:       "passed",
			body:       `{"userId":"member","roleId":"role","answers":["A","B","C","D"],"correctAnswers":["A","X","C","D"]}`,
			wantAction: roles.ActionAdd,
			wantBody:   `{"success":true,"passed":true,"results":{"correct":3,"total":4,"percentage":75}}`,
			wantRoles:  []string{roleID},
		},
		{
			name:       "failed",
			body:       `{"userId":"member","roleId":"role","answers":["A","B"],"correctAnswers":["A","X"]}`,
			wantAction: roles.ActionRemove,
			wantBody:   `{"success":true,"passed":false,"results":{"correct":1,"total":2,"percentage":50}}`,
			wantRoles:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestBridge(t)

			rec := httptest.NewRecorder()
			tb.processQCM(rec, qcmRequest(tt.body))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.ElementsMatch(t, tt.wantRoles, tb.discord.memberRoles(quizGuild))
			assert.Empty(t, tb.discord.memberRoles(rolesGuild), "quizzes apply to the default guild")

			require.Len(t, tb.notes.sent, 1)
			sent := tb.notes.sent[0]
			assert.Equal(t, tt.wantAction, sent.Action)
			assert.True(t, sent.Success)
			assert.Equal(t, "Police", sent.Role.Name)
			require.NotNil(t, sent.Quiz)
		})
	}
}

func TestBridge_processQCM_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		dev         bool
		notReady    bool
		wantDetails string
	}{
		{
			name:        "missing fields",
			body:        `{"userId":"member","answers":["A"],"correctAnswers":["A"]}`,
			wantDetails: "Missing required fields",
		},
		{
			name:        "mismatched length",
			body:        `{"userId":"member","roleId":"role","answers":["A","B"],"correctAnswers":["A"]}`,
			wantDetails: "Answer arrays must have the same length",
		},
		{
			name:        "unknown member",
			body:        `{"userId":"stranger","roleId":"role","answers":["A"],"correctAnswers":["A"]}`,
			wantDetails: "Member stranger not found",
		},
		{
			name:        "bot not ready",
			body:        `{"userId":"member","roleId":"role","answers":["A"],"correctAnswers":["A"]}`,
			notReady:    true,
			wantDetails: "Bot not ready",
		},
		{
			name:        "stack in development",
			body:        `{"userId":"member","roleId":"ghost","answers":["A"],"correctAnswers":["A"]}`,
			dev:         true,
			wantDetails: "Role ghost not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestBridge(t)
			tb.gw.ready = !tt.notReady
			if tt.dev {
				tb.cfg.Environment = config.EnvDevelopment
			}

			rec := httptest.NewRecorder()
			tb.processQCM(rec, qcmRequest(tt.body))

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			var body qcmErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, "Internal server error", body.Error)
			assert.Equal(t, tt.wantDetails, body.Details)
			assert.Equal(t, tt.dev, body.Stack != "")
			assert.Empty(t, tb.notes.sent)
		})
	}
}

func TestBridge_processQCM_InvalidBody(t *testing.T) {
	tb := newTestBridge(t)

	rec := httptest.NewRecorder()
	tb.processQCM(rec, qcmRequest(`{"userId":"member","answers":"A"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.NotContains(t, rec.Body.String(), `"stack"`)
}

func TestBridge_test(t *testing.T) {
	tb := newTestBridge(t)

	rec := httptest.NewRecorder()
	tb.test(rec, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Bot is running","timestamp":"2024-05-01T09:30:15.123Z","guild":"quiz-guild","botId":"bot"}`, rec.Body.String())
}

func TestBridge_root(t *testing.T) {
	tb := newTestBridge(t)
	tb.gw.ready = false

	rec := httptest.NewRecorder()
	tb.root(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var body liveness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "API is running", body.Status)
	assert.Equal(t, rolesGuild, body.Guild)
	assert.Empty(t, body.BotID)
	assert.Contains(t, body.Endpoints, "GET /assign-role")
	assert.Contains(t, body.Endpoints, "POST /process-qcm")
	assert.Contains(t, body.Endpoints, "GET /test")
}

func TestBridge_getStatus(t *testing.T) {
	tb := newTestBridge(t)

	rec := httptest.NewRecorder()
	tb.getStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/status", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	tb.db.Save(tb.cfg.Discord.StatusChannelID, checks.Snapshot{
		Uptime:     checks.Result{Online: true, ResponseTimeMs: 120, UptimePercent: 99.5},
		Domain:     checks.Result{Online: true, ResponseTimeMs: 40, UptimePercent: 98.7},
		Screenshot: []byte("png"),
		Timestamp:  fixedNow,
	})

	rec = httptest.NewRecorder()
	tb.getStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/status", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"uptime": {"online": true, "responseTimeMs": 120, "uptimePercent": 99.5},
		"domain": {"online": true, "responseTimeMs": 40, "uptimePercent": 98.7},
		"timestamp": "2024-05-01T09:30:15.123Z"
	}`, rec.Body.String())
}

func TestBridge_getOpenapi(t *testing.T) {
	tests := []struct {
		name        string
		accept      string
		contentType string
		decode      func([]byte, any) error
	}{
		{name: "yaml by default", contentType: "text/yaml", decode: yaml.Unmarshal},
		{name: "json on request", accept: "application/json", contentType: "application/json", decode: json.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestBridge(t)
			require.NoError(t, tb.api.RegisterRoutes(context.Background(), tb.routes()...))

			req := httptest.NewRequest(http.MethodGet, "/openapi", http.NoBody)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			tb.getOpenapi(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))

			var doc map[string]any
			require.NoError(t, tt.decode(rec.Body.Bytes(), &doc))
			paths, ok := doc["paths"].(map[string]any)
			require.True(t, ok)
			assert.Contains(t, paths, "/assign-role")
			assert.Contains(t, paths, "/process-qcm")
			assert.NotContains(t, paths, "/openapi")
		})
	}
}
