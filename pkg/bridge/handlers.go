// bridge
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"gopkg.in/yaml.v3"

	"github.com/wajed-network/bridge/internal/logger"
	"github.com/wajed-network/bridge/pkg/api"
	"github.com/wajed-network/bridge/pkg/notify"
	"github.com/wajed-network/bridge/pkg/quiz"
	"github.com/wajed-network/bridge/pkg/roles"
)

type encoder interface {
	Encode(v any) error
}

// timestampLayout matches javascript's Date.toISOString
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var errBotNotReady = errors.New("Bot not ready")

type assignRoleResponse struct {
	Success     bool     `json:"success"`
	Action      string   `json:"action"`
	UserID      string   `json:"userId"`
	RoleID      string   `json:"roleId"`
	MemberRoles []string `json:"memberRoles"`
}

type qcmResponse struct {
	Success bool        `json:"success"`
	Passed  bool        `json:"passed"`
	Results quiz.Result `json:"results"`
}

type qcmErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
	Stack   string `json:"stack,omitempty"`
}

type liveness struct {
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
	Timestamp string            `json:"timestamp"`
	Guild     string            `json:"guild"`
	BotID     string            `json:"botId,omitempty"`
}

// assignRole adds or removes a role of a member of the roles guild
func (b *Bridge) assignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	q := r.URL.Query()
	userID, roleID, rawAction := q.Get("userId"), q.Get("roleId"), q.Get("action")
	guildID := b.cfg.Discord.RolesGuildID

	log.InfoContext(ctx, "Role assignment requested", logger.Type("ROLE_REQUEST"),
		logger.Data("userId", userID, "roleId", roleID, "action", rawAction, "query", q))

	if userID == "" || roleID == "" || rawAction == "" {
		log.WarnContext(ctx, "Missing parameters", logger.Type("ROLE_ERROR"), logger.Data("query", q))
		api.WriteError(w, r, http.StatusBadRequest, "Missing required parameters")
		return
	}
	action, err := roles.ParseAction(rawAction)
	if err != nil {
		log.WarnContext(ctx, "Invalid action", logger.Type("ROLE_ERROR"), logger.Data("action", rawAction))
		api.WriteError(w, r, http.StatusBadRequest, "Invalid action")
		return
	}

	if !b.gateway.Ready() {
		log.ErrorContext(ctx, "Bot not ready", logger.Type("BOT_ERROR"))
		api.WriteError(w, r, http.StatusServiceUnavailable, errBotNotReady.Error())
		return
	}

	guild, err := b.roles.Guild(ctx, guildID)
	if err != nil {
		log.ErrorContext(ctx, "Guild not found", logger.Type("GUILD_ERROR"), logger.Data("guildId", guildID))
		b.writeLookupError(w, r, err, "Guild not found")
		return
	}

	log.InfoContext(ctx, "Fetching member", logger.Type("MEMBER_FETCH"), logger.Data("userId", userID))
	member, err := b.roles.Member(ctx, guildID, userID)
	if err != nil {
		log.ErrorContext(ctx, "Member not found", logger.Type("MEMBER_ERROR"), logger.Data("userId", userID, "guildId", guildID))
		b.writeLookupError(w, r, err, "Member not found")
		return
	}

	log.InfoContext(ctx, "Fetching role", logger.Type("ROLE_FETCH"), logger.Data("roleId", roleID))
	if _, err = b.roles.Role(ctx, guildID, roleID); err != nil {
		log.ErrorContext(ctx, "Role not found", logger.Type("ROLE_ERROR"), logger.Data("roleId", roleID, "guildId", guildID))
		b.writeLookupError(w, r, err, "Role not found")
		return
	}

	if err := b.roles.SetRole(ctx, guild, member, roleID, action); err != nil {
		log.ErrorContext(ctx, "Error in role assignment", logger.Type("ERROR"), logger.Data("error", err.Error(), "query", q))
		api.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	memberRoles := member.Roles
	if memberRoles == nil {
		memberRoles = []string{}
	}
	api.WriteJSON(w, r, http.StatusOK, assignRoleResponse{
		Success:     true,
		Action:      string(action),
		UserID:      userID,
		RoleID:      roleID,
		MemberRoles: memberRoles,
	})
}

// writeLookupError answers 404 for missing entities and 500 otherwise
func (b *Bridge) writeLookupError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, &roles.NotFoundError{}) {
		api.WriteError(w, r, http.StatusNotFound, notFound)
		return
	}
	api.WriteError(w, r, http.StatusInternalServerError, err.Error())
}

// processQCM grades a quiz submission and grants or revokes the role
func (b *Bridge) processQCM(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var sub quiz.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		b.writeQCMError(w, r, &quiz.ValidationError{Reason: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	log.InfoContext(ctx, "Received QCM processing request", logger.Type("QCM_REQUEST"), logger.Data("body", sub))

	res, err := sub.Grade()
	if err != nil {
		b.writeQCMError(w, r, err)
		return
	}
	action := roles.ActionRemove
	if res.Passed {
		action = roles.ActionAdd
	}

	if !b.gateway.Ready() {
		b.writeQCMError(w, r, errBotNotReady)
		return
	}
	guildID := b.cfg.Discord.QuizGuildID()
	guild, err := b.roles.Guild(ctx, guildID)
	if err != nil {
		b.writeQCMError(w, r, err)
		return
	}
	member, err := b.roles.Member(ctx, guildID, sub.UserID)
	if err != nil {
		b.writeQCMError(w, r, err)
		return
	}
	if err := b.roles.SetRole(ctx, guild, member, sub.RoleID, action); err != nil {
		b.writeQCMError(w, r, err)
		return
	}
	role, err := b.roles.Role(ctx, guildID, sub.RoleID)
	if err != nil {
		b.writeQCMError(w, r, err)
		return
	}

	b.notifier.Notify(ctx, notify.Notification{
		Guild:   guild,
		Member:  member,
		Role:    role,
		Action:  action,
		Success: true,
		Quiz:    &res,
	})

	api.WriteJSON(w, r, http.StatusOK, qcmResponse{Success: true, Passed: res.Passed, Results: res})
}

func (b *Bridge) writeQCMError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger.FromContext(ctx).ErrorContext(ctx, err.Error(), logger.Type("QCM_ERROR"))

	body := qcmErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Details: err.Error(),
	}
	if b.cfg.IsDevelopment() {
		body.Stack = string(debug.Stack())
	}
	api.WriteJSON(w, r, http.StatusInternalServerError, body)
}

// test reports that the bridge is running
func (b *Bridge) test(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, r, http.StatusOK, liveness{
		Status:    "Bot is running",
		Timestamp: b.now().UTC().Format(timestampLayout),
		Guild:     b.cfg.Discord.DefaultGuildID,
		BotID:     b.gateway.BotID(),
	})
}

// root lists the available endpoints
func (b *Bridge) root(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, r, http.StatusOK, liveness{
		Status: "API is running",
		Endpoints: map[string]string{
			"GET /assign-role":  "Assign/remove roles (using URL parameters)",
			"POST /process-qcm": "Process QCM results",
			"GET /test":         "Test endpoint",
			"GET /v1/status":    "Latest service status",
			"GET /openapi":      "OpenAPI description",
			"GET /metrics":      "Prometheus metrics",
		},
		Timestamp: b.now().UTC().Format(timestampLayout),
		Guild:     b.cfg.Discord.RolesGuildID,
		BotID:     b.gateway.BotID(),
	})
}

// getStatus returns the latest check snapshot of the status channel
func (b *Bridge) getStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := b.db.Get(b.cfg.Discord.StatusChannelID)
	if !ok {
		api.WriteError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	api.WriteJSON(w, r, http.StatusOK, snap)
}

func (b *Bridge) getOpenapi(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	oapi := b.api.OpenAPI()

	mime := r.Header.Get("Accept")

	var marshaler encoder
	switch mime {
	case "application/json":
		marshaler = json.NewEncoder(w)
		w.Header().Add("Content-Type", "application/json")
	default:
		marshaler = yaml.NewEncoder(w)
		w.Header().Add("Content-Type", "text/yaml")
	}

	err := marshaler.Encode(oapi)
	if err != nil {
		log.Error("failed to marshal openapi", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, err = w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
		if err != nil {
			log.Error("Failed to write response", "error", err)
		}
		return
	}
}
