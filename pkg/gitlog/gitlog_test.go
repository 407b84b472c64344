package gitlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLog(t *testing.T) {
	out := "abc123\x1fAlice\x1f2026-08-20T10:00:00+02:00\x1ffeat: add boss arena\x1fSecond phase added.\n\nScreenshot: media/boss.png\x1e\n" +
		"def456\x1fBob\x1f2026-08-19T09:30:00Z\x1ffix: crash on save\x1f\x1e"

	commits, err := parseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "abc123", commits[0].Hash)
	assert.Equal(t, "Alice", commits[0].Author)
	assert.Equal(t, "feat: add boss arena", commits[0].Subject)
	assert.Contains(t, commits[0].Body, "Screenshot: media/boss.png")
	assert.Equal(t, 2026, commits[0].When.Year())

	assert.Equal(t, "def456", commits[1].Hash)
	assert.Empty(t, commits[1].Body)
	assert.Equal(t, time.UTC, commits[1].When.Location())
}

func TestParseLogEmpty(t *testing.T) {
	commits, err := parseLog("")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestParseLogMalformed(t *testing.T) {
	_, err := parseLog("only-a-hash\x1e")
	assert.Error(t, err)

	_, err = parseLog("h\x1fa\x1fnot-a-date\x1fs\x1fb\x1e")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		subject string
		want    Category
	}{
		{"feat: add grappling hook", CategoryFeature},
		{"feat(movement): wall jump", CategoryFeature},
		{"feat!: rework save format", CategoryFeature},
		{"fix: crash when loading corrupt save", CategoryFix},
		{"bugfix: typo in tutorial", CategoryFix},
		{"balance: nerf shotgun spread", CategoryBalance},
		{"content: three new levels", CategoryContent},
		{"art: repaint desert tileset", CategoryContent},
		{"audio: new boss theme", CategoryContent},
		{"chore: bump dependencies", CategoryInternal},
		{"ci: cache build artifacts", CategoryInternal},
		{"docs: update contributing guide", CategoryInternal},
		{"refactor: split input handling", CategoryInternal},
		// keyword heuristics without a prefix
		{"Fixed a crash in the pause menu", CategoryFix},
		{"Buff the ice wand damage", CategoryBalance},
		{"New forest level and sprites", CategoryContent},
		{"Merge branch 'dev'", CategoryInternal},
		{"Bump version to 1.2.0", CategoryInternal},
		// unknown subjects default to feature
		{"Grappling hook now latches onto enemies", CategoryFeature},
	}
	for _, tt := range tests {
		got := Classify(Commit{Subject: tt.subject})
		assert.Equal(t, tt.want, got, "subject %q", tt.subject)
	}
}

func TestPlayerFacing(t *testing.T) {
	commits := []Commit{
		{Subject: "feat: add boss arena"},
		{Subject: "chore: bump dependencies"},
		{Subject: "fix: crash on save"},
		{Subject: "ci: speed up pipeline"},
	}

	facing := PlayerFacing(commits)
	require.Len(t, facing, 2)
	assert.Equal(t, "feat: add boss arena", facing[0].Subject)
	assert.Equal(t, "fix: crash on save", facing[1].Subject)
}

func TestScreenshotPath(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{"trailer", "Long description here.\n\nScreenshot: media/boss_arena.png", "media/boss_arena.png", true},
		{"trailer case insensitive", "SCREENSHOT: shots/new.webp", "shots/new.webp", true},
		{"inline", "See the new arena [screenshot: media/arena.jpg] in action.", "media/arena.jpg", true},
		{"trailer wins over inline", "Screenshot: a.png\n[screenshot: b.png]", "a.png", true},
		{"absent", "Just a body with no directive.", "", false},
		{"not a trailer mid-line", "the screenshot: thing is broken", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := ScreenshotPath(Commit{Body: tt.body})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, path)
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "feature", CategoryFeature.String())
	assert.Equal(t, "internal", CategoryInternal.String())
	assert.Equal(t, "category(99)", Category(99).String())
}
