// Package draft turns classified commit history into a Steam announcement
// draft using an LLM backend. Backends are interchangeable behind the
// ChatClient interface; the prompt asks for strict JSON and the parser
// tolerates the usual model formatting noise.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jamesthegreati/WishlistOps-sub001/pkg/gitlog"
)

// ChatClient is the minimal LLM surface the drafter needs.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Announcement is a drafted community post, pending human approval.
type Announcement struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SystemPrompt frames the copywriting task.
const SystemPrompt = `You are a community manager writing a Steam announcement for an indie game.

Return JSON only:
{
  "title": "string, under 80 characters, no clickbait",
  "body": "string, 2-4 short paragraphs of player-facing prose"
}

HARD RULES
- Write for players, not developers. No commit hashes, file names, or jargon.
- Group related changes; do not write one line per commit.
- Mention fixes briefly; lead with new features and content.
- JSON only. No markdown fences, no comments, no trailing commas.`

// Generator builds announcement drafts for one game.
type Generator struct {
	client ChatClient
	game   string
}

// NewGenerator creates a draft generator.
func NewGenerator(client ChatClient, game string) *Generator {
	return &Generator{client: client, game: game}
}

// Draft produces an announcement from player-facing commits. Model output
// that is not valid JSON degrades to a first-line-title parse instead of
// failing the run.
func (g *Generator) Draft(ctx context.Context, commits []gitlog.Commit) (*Announcement, error) {
	if len(commits) == 0 {
		return nil, fmt.Errorf("no player-facing commits to announce")
	}

	raw, err := g.client.Complete(ctx, SystemPrompt, g.buildPrompt(commits))
	if err != nil {
		return nil, fmt.Errorf("draft completion: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty response from draft backend")
	}

	return parseAnnouncement(raw), nil
}

// buildPrompt groups the changelog by category so the model sees structure
// instead of a flat commit dump.
func (g *Generator) buildPrompt(commits []gitlog.Commit) string {
	groups := map[gitlog.Category][]string{}
	for _, c := range commits {
		cat := gitlog.Classify(c)
		groups[cat] = append(groups[cat], c.Subject)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s\n\nChanges since the last announcement:\n", g.game)
	for _, cat := range []gitlog.Category{
		gitlog.CategoryFeature,
		gitlog.CategoryContent,
		gitlog.CategoryBalance,
		gitlog.CategoryFix,
	} {
		subjects := groups[cat]
		if len(subjects) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", cat)
		for _, s := range subjects {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}

// parseAnnouncement parses the model response, sanitizing fences and
// comments first. Non-JSON output falls back to treating the first line as
// the title.
func parseAnnouncement(raw string) *Announcement {
	cleaned := sanitizeModelJSON(raw)

	var ann Announcement
	if err := json.Unmarshal([]byte(cleaned), &ann); err == nil && ann.Title != "" {
		ann.Title = strings.TrimSpace(ann.Title)
		ann.Body = strings.TrimSpace(ann.Body)
		return &ann
	}

	lines := strings.SplitN(strings.TrimSpace(raw), "\n", 2)
	ann = Announcement{Title: strings.TrimSpace(lines[0])}
	if len(lines) > 1 {
		ann.Body = strings.TrimSpace(lines[1])
	}
	return &ann
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON strips code fences, comments, and trailing commas, then
// keeps only the outermost JSON object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
