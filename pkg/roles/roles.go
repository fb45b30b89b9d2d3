// Package roles resolves guild members and roles and changes role
// memberships after checking that the bot is allowed to.
package roles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wajed-network/bridge/internal/logger"
)

// Action is a requested role change
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// ParseAction parses an action name
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAdd, ActionRemove:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Session is the part of the discord session the manager needs
type Session interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Manager changes role memberships in a guild
type Manager struct {
	session Session
	// botID returns the user id of the bot, empty until the gateway is ready
	botID   func() string
	metrics metrics
}

// NewManager creates a new role manager
func NewManager(session Session, botID func() string) *Manager {
	return &Manager{
		session: session,
		botID:   botID,
		metrics: newMetrics(),
	}
}

// Guild fetches a guild
func (m *Manager) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	g, err := m.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, lookupError("Guild", guildID, err)
	}
	return g, nil
}

// Member fetches a member of a guild
func (m *Manager) Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	member, err := m.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, lookupError("Member", userID, err)
	}
	return member, nil
}

// Role fetches a role of a guild
func (m *Manager) Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error) {
	all, err := m.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, lookupError("Role", roleID, err)
	}
	return findRole(all, roleID)
}

// SetRole adds or removes the role of the member. The member's role list is
// updated in place. Adding a held role and removing a missing one are no-ops.
func (m *Manager) SetRole(ctx context.Context, guild *discordgo.Guild, member *discordgo.Member, roleID string, action Action) error {
	log := logger.FromContext(ctx)
	err := m.setRole(ctx, guild, member, roleID, action)
	if err != nil {
		log.ErrorContext(ctx, err.Error(), logger.Type("ROLE_ERROR"),
			logger.Data("guild", guild.ID, "member", memberID(member), "roleId", roleID, "action", string(action)))
		m.metrics.actions.WithLabelValues(string(action), outcomeFailed).Inc()
	}
	return err
}

func (m *Manager) setRole(ctx context.Context, guild *discordgo.Guild, member *discordgo.Member, roleID string, action Action) error {
	log := logger.FromContext(ctx)

	bot, err := m.session.GuildMember(guild.ID, m.botID(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to fetch bot member: %w", err)
	}
	all, err := m.session.GuildRoles(guild.ID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to fetch roles: %w", err)
	}
	if !canManageRoles(guild, bot, all) {
		return &PermissionError{Reason: "Bot lacks MANAGE_ROLES permission"}
	}

	role, err := findRole(all, roleID)
	if err != nil {
		return err
	}
	if highestPosition(bot, all) <= role.Position {
		return &PermissionError{Reason: "Bot's highest role is not high enough to manage this role"}
	}

	userID := memberID(member)
	held := slices.Contains(member.Roles, roleID)
	switch {
	case action == ActionAdd && !held:
		if err := m.session.GuildMemberRoleAdd(guild.ID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to add role %s: %w", role.Name, err)
		}
		member.Roles = append(member.Roles, roleID)
		log.InfoContext(ctx, fmt.Sprintf("Added role %s to %s", role.Name, memberTag(member)), logger.Type("ROLE_ADDED"))
	case action == ActionRemove && held:
		if err := m.session.GuildMemberRoleRemove(guild.ID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to remove role %s: %w", role.Name, err)
		}
		member.Roles = slices.DeleteFunc(member.Roles, func(id string) bool { return id == roleID })
		log.InfoContext(ctx, fmt.Sprintf("Removed role %s from %s", role.Name, memberTag(member)), logger.Type("ROLE_REMOVED"))
	case action != ActionAdd && action != ActionRemove:
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	default:
		log.DebugContext(ctx, "Role already in requested state", "role", roleID, "action", string(action))
		m.metrics.actions.WithLabelValues(string(action), outcomeNoop).Inc()
		return nil
	}

	m.metrics.actions.WithLabelValues(string(action), outcomeApplied).Inc()
	return nil
}

// GetMetricCollectors returns all metric collectors of the manager
func (m *Manager) GetMetricCollectors() []prometheus.Collector {
	return m.metrics.collectors()
}

// canManageRoles reports whether the bot owns the guild or holds a role
// granting administrator or manage roles. @everyone shares the guild id.
func canManageRoles(guild *discordgo.Guild, bot *discordgo.Member, all []*discordgo.Role) bool {
	if bot.User != nil && guild.OwnerID != "" && bot.User.ID == guild.OwnerID {
		return true
	}
	const mask = discordgo.PermissionAdministrator | discordgo.PermissionManageRoles
	for _, r := range all {
		if r.ID != guild.ID && !slices.Contains(bot.Roles, r.ID) {
			continue
		}
		if r.Permissions&mask != 0 {
			return true
		}
	}
	return false
}

// highestPosition returns the highest position among the bot's roles,
// 0 (the @everyone position) when it holds none
func highestPosition(bot *discordgo.Member, all []*discordgo.Role) int {
	highest := 0
	for _, r := range all {
		if slices.Contains(bot.Roles, r.ID) && r.Position > highest {
			highest = r.Position
		}
	}
	return highest
}

func findRole(all []*discordgo.Role, roleID string) (*discordgo.Role, error) {
	for _, r := range all {
		if r.ID == roleID {
			return r, nil
		}
	}
	return nil, &NotFoundError{Kind: "Role", ID: roleID}
}

// lookupError maps unknown-entity REST responses to a NotFoundError
func lookupError(kind, id string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return &NotFoundError{Kind: kind, ID: id, Err: err}
	}
	return fmt.Errorf("failed to fetch %s %s: %w", strings.ToLower(kind), id, err)
}

func memberID(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return ""
	}
	return m.User.ID
}

func memberTag(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return ""
	}
	if d := m.User.Discriminator; d != "" && d != "0" {
		return m.User.Username + "#" + d
	}
	return m.User.Username
}
