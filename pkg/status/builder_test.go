package status

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wajed-network/bridge/pkg/checks"
	"github.com/wajed-network/bridge/pkg/config"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

func testStatusConfig() config.StatusConfig {
	return config.StatusConfig{
		Interval: 30 * time.Second,
		PageURL:  "http://status.test.com/?i=1",
		Timezone: "UTC",
	}
}

func onlineSnapshot() checks.Snapshot {
	return checks.Snapshot{
		Uptime:    checks.Result{Online: true, ResponseTimeMs: 120, UptimePercent: 99.5},
		Domain:    checks.Result{Online: true, ResponseTimeMs: 45, UptimePercent: 98.7},
		Timestamp: fixedNow,
	}
}

func TestBuilder_Build_Color(t *testing.T) {
	offline := onlineSnapshot()
	offline.Uptime = checks.Result{}

	tests := []struct {
		name string
		snap checks.Snapshot
		want int
	}{
		{name: "all online", snap: onlineSnapshot(), want: ColorOnline},
		{name: "uptime offline", snap: offline, want: ColorOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewBuilder(testStatusConfig()).Build(tt.snap, fixedNow)
			assert.Equal(t, tt.want, p.Embed.Color)
		})
	}
}

func TestBuilder_Build_Fields(t *testing.T) {
	p := NewBuilder(testStatusConfig()).Build(onlineSnapshot(), fixedNow)

	require.Len(t, p.Embed.Fields, 3)
	assert.Equal(t, checks.UptimeService, p.Embed.Fields[0].Name)
	assert.Equal(t, "حالة: 🟢 متصل\nزمن الاستجابة: 120ms\nوقت التشغيل: 99.5%", p.Embed.Fields[0].Value)
	assert.True(t, p.Embed.Fields[0].Inline)
	assert.Equal(t, checks.DomainService, p.Embed.Fields[1].Name)
	assert.Contains(t, p.Embed.Fields[1].Value, "45ms")
	assert.Equal(t, "VPS Hosting", p.Embed.Fields[2].Name)
	assert.Equal(t, hostingSpecs, p.Embed.Fields[2].Value)
	assert.False(t, p.Embed.Fields[2].Inline)

	assert.Equal(t, "اخر تحديث: 2024-05-01 09:30:15", p.Embed.Footer.Text)
	assert.Equal(t, "2024-05-01T09:30:15Z", p.Embed.Timestamp)
}

func TestBuilder_Build_OfflineField(t *testing.T) {
	snap := onlineSnapshot()
	snap.Uptime = checks.Result{}

	p := NewBuilder(testStatusConfig()).Build(snap, fixedNow)
	assert.Equal(t, "حالة: 🔴 غير متصل\nزمن الاستجابة: 0ms\nوقت التشغيل: 0%", p.Embed.Fields[0].Value)
}

func TestBuilder_Build_FooterLocation(t *testing.T) {
	cfg := testStatusConfig()
	cfg.Timezone = "Asia/Riyadh"

	p := NewBuilder(cfg).Build(onlineSnapshot(), fixedNow)
	assert.True(t, strings.HasSuffix(p.Embed.Footer.Text, "2024-05-01 12:30:15"), p.Embed.Footer.Text)
}

func TestBuilder_Build_LinkButton(t *testing.T) {
	p := NewBuilder(testStatusConfig()).Build(onlineSnapshot(), fixedNow)

	want := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: "صفحة الحالة",
					Style: discordgo.LinkButton,
					URL:   "http://status.test.com/?i=1",
					Emoji: &discordgo.ComponentEmoji{Name: "🔗"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, p.Components); diff != "" {
		t.Errorf("Build() components mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_Build_Screenshot(t *testing.T) {
	t.Run("attached when rendered", func(t *testing.T) {
		snap := onlineSnapshot()
		snap.Screenshot = []byte("png")

		p := NewBuilder(testStatusConfig()).Build(snap, fixedNow)
		require.NotNil(t, p.Embed.Image)
		assert.Equal(t, "attachment://"+ScreenshotName, p.Embed.Image.URL)

		send := p.MessageSend()
		require.Len(t, send.Files, 1)
		assert.Equal(t, ScreenshotName, send.Files[0].Name)
		b, err := io.ReadAll(send.Files[0].Reader)
		require.NoError(t, err)
		assert.Equal(t, []byte("png"), b)
	})

	t.Run("no image without screenshot", func(t *testing.T) {
		p := NewBuilder(testStatusConfig()).Build(onlineSnapshot(), fixedNow)
		assert.Nil(t, p.Embed.Image)
		assert.Empty(t, p.MessageSend().Files)
	})
}

func TestPayload_MessageEdit(t *testing.T) {
	snap := onlineSnapshot()
	snap.Screenshot = []byte("png")
	p := NewBuilder(testStatusConfig()).Build(snap, fixedNow)

	edit := p.MessageEdit("chan", "msg")
	assert.Equal(t, "chan", edit.Channel)
	assert.Equal(t, "msg", edit.ID)
	require.NotNil(t, edit.Embeds)
	assert.Equal(t, []*discordgo.MessageEmbed{p.Embed}, *edit.Embeds)
	require.NotNil(t, edit.Attachments)
	assert.Empty(t, *edit.Attachments)
	assert.Len(t, edit.Files, 1)
}
