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

package status

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wajed-network/bridge/pkg/checks"
	"github.com/wajed-network/bridge/pkg/config"
)

const (
	ColorOnline  = 0x22c55e
	ColorOffline = 0xef4444

	// ScreenshotName is the file name the screenshot is attached under
	ScreenshotName = "status.png"

	footerLayout = "2006-01-02 15:04:05"
)

// hostingSpecs is shown as is, it is not derived from any check
const hostingSpecs = "🟢 متصل\nالمعالج: Intel Xeon E5-2686 v4\nالذاكرة: 32 GB DDR4\nالتخزين: 1TB NVMe SSD\nالشبكة: 10 Gbps\nوقت التشغيل: 99.99%"

// Payload is a renderable status message
type Payload struct {
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Screenshot []byte
}

// Builder composes status payloads from check snapshots.
// It performs no I/O.
type Builder struct {
	pageURL  string
	location *time.Location
}

// NewBuilder creates a new Builder
func NewBuilder(cfg config.StatusConfig) *Builder {
	return &Builder{
		pageURL:  cfg.PageURL,
		location: cfg.Location(),
	}
}

// Build composes the status payload for the given snapshot
func (b *Builder) Build(snap checks.Snapshot, now time.Time) Payload {
	online := snap.AllOnline()

	embed := &discordgo.MessageEmbed{
		Title:       "حالة الخدمات",
		Description: "🔴 بعض الخدمات تواجه مشاكل",
		Color:       ColorOffline,
		Fields: []*discordgo.MessageEmbedField{
			serviceField(checks.UptimeService, snap.Uptime),
			serviceField(checks.DomainService, snap.Domain),
			{Name: "VPS Hosting", Value: hostingSpecs, Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "اخر تحديث: " + now.In(b.location).Format(footerLayout),
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if online {
		embed.Color = ColorOnline
		embed.Description = "🟢 جميع الخدمات تعمل بشكل طبيعي"
	}

	p := Payload{
		Embed: embed,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label: "صفحة الحالة",
						Style: discordgo.LinkButton,
						URL:   b.pageURL,
						Emoji: &discordgo.ComponentEmoji{Name: "🔗"},
					},
				},
			},
		},
	}
	if snap.HasScreenshot() {
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + ScreenshotName}
		p.Screenshot = snap.Screenshot
	}
	return p
}

func serviceField(name string, res checks.Result) *discordgo.MessageEmbedField {
	state := "🔴 غير متصل"
	if res.Online {
		state = "🟢 متصل"
	}
	return &discordgo.MessageEmbedField{
		Name: name,
		Value: fmt.Sprintf("حالة: %s\nزمن الاستجابة: %dms\nوقت التشغيل: %s%%",
			state, res.ResponseTimeMs, strconv.FormatFloat(res.UptimePercent, 'f', -1, 64)),
		Inline: true,
	}
}

func (p Payload) files() []*discordgo.File {
	if len(p.Screenshot) == 0 {
		return nil
	}
	return []*discordgo.File{{
		Name:        ScreenshotName,
		ContentType: "image/png",
		Reader:      bytes.NewReader(p.Screenshot),
	}}
}

// MessageSend returns the payload as a new message
func (p Payload) MessageSend() *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{p.Embed},
		Components: p.Components,
		Files:      p.files(),
	}
}

// MessageEdit returns the payload as an edit of an existing message.
// Previous attachments are dropped so the screenshot is replaced.
func (p Payload) MessageEdit(channelID, messageID string) *discordgo.MessageEdit {
	embeds := []*discordgo.MessageEmbed{p.Embed}
	components := p.Components
	attachments := []*discordgo.MessageAttachment{}
	return &discordgo.MessageEdit{
		ID:          messageID,
		Channel:     channelID,
		Embeds:      &embeds,
		Components:  &components,
		Attachments: &attachments,
		Files:       p.files(),
	}
}
