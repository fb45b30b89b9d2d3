package notify

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wajed-network/bridge/pkg/quiz"
	"github.com/wajed-network/bridge/pkg/roles"
)

// DirectEmbed builds the embed sent to the member
func DirectEmbed(msg Notification, now time.Time) *discordgo.MessageEmbed {
	title, description := "⚠️ حدث خطأ", "حدث خطأ أثناء معالجة طلبك. الرجاء التواصل مع الإدارة."
	if msg.Success {
		if msg.Action == roles.ActionAdd {
			title, description = "🎉 مبروك! تم قبول طلبك", "تم قبولك في "+roleName(msg.Role)
		} else {
			title, description = "❌ تم رفض طلبك", "نتمنى لك التوفيق في المرات القادمة"
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color(msg.Success),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "الوظيفة", Value: roleName(msg.Role), Inline: true},
			{Name: "السيرفر", Value: guildName(msg.Guild), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if msg.Quiz != nil {
		embed.Fields = append(embed.Fields, resultsField(msg.Quiz))
	}
	return embed
}

// WebhookEmbed builds the embed mirrored to the operations webhook
func WebhookEmbed(msg Notification, now time.Time) *discordgo.MessageEmbed {
	title := "تم رفض عضو"
	if msg.Action == roles.ActionAdd {
		title = "تم قبول عضو جديد"
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: color(msg.Success),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "العضو", Value: memberTag(msg.Member), Inline: true},
			{Name: "الوظيفة", Value: roleName(msg.Role), Inline: true},
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if msg.Quiz != nil {
		embed.Fields = append(embed.Fields, resultsField(msg.Quiz))
	}
	return embed
}

func resultsField(res *quiz.Result) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{
		Name:  "نتائج الاختبار",
		Value: "صحيح: " + res.String(),
	}
}

func color(success bool) int {
	if success {
		return colorSuccess
	}
	return colorFailure
}

func roleName(r *discordgo.Role) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func roleID(r *discordgo.Role) string {
	if r == nil {
		return ""
	}
	return r.ID
}

func guildName(g *discordgo.Guild) string {
	if g == nil {
		return ""
	}
	return g.Name
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
