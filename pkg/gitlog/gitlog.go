// Package gitlog reads commit history from a local repository and classifies
// commits for announcement drafting. It shells out to the git binary rather
// than reimplementing the object store.
package gitlog

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Field and record separators for the git pretty format. Unit/record
// separator control characters cannot appear in commit text.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Commit is one entry of the repository history.
type Commit struct {
	Hash    string
	Author  string
	When    time.Time
	Subject string
	Body    string
}

// Category buckets commits for the announcement draft. Internal commits are
// never shown to players.
type Category int

const (
	CategoryFeature Category = iota
	CategoryFix
	CategoryBalance
	CategoryContent
	CategoryInternal
)

var categoryNames = []string{"feature", "fix", "balance", "content", "internal"}

func (c Category) String() string {
	if int(c) >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Reader reads commits from one repository working directory.
type Reader struct {
	Dir string
}

// NewReader creates a Reader for the repository at dir.
func NewReader(dir string) *Reader {
	return &Reader{Dir: dir}
}

// CommitsSince returns commits after ref (exclusive), newest first. An empty
// ref returns the full history.
func (r *Reader) CommitsSince(ctx context.Context, ref string) ([]Commit, error) {
	args := []string{"-C", r.Dir, "log", "--pretty=format:%H" + fieldSep + "%an" + fieldSep + "%aI" + fieldSep + "%s" + fieldSep + "%b" + recordSep}
	if ref != "" {
		args = append(args, ref+"..HEAD")
	}

	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git log failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git log failed: %w", err)
	}
	return parseLog(string(out))
}

// parseLog splits raw pretty-format output into commits.
func parseLog(out string) ([]Commit, error) {
	var commits []Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 5)
		if len(fields) < 5 {
			return nil, fmt.Errorf("malformed git log record %q", record)
		}
		when, err := time.Parse(time.RFC3339, fields[2])
		if err != nil {
			return nil, fmt.Errorf("parse commit date %q: %w", fields[2], err)
		}
		commits = append(commits, Commit{
			Hash:    fields[0],
			Author:  fields[1],
			When:    when,
			Subject: fields[3],
			Body:    strings.TrimSpace(fields[4]),
		})
	}
	return commits, nil
}

// Conventional-commit prefixes mapped onto announcement categories.
var prefixCategories = map[string]Category{
	"feat":     CategoryFeature,
	"feature":  CategoryFeature,
	"fix":      CategoryFix,
	"bugfix":   CategoryFix,
	"balance":  CategoryBalance,
	"content":  CategoryContent,
	"art":      CategoryContent,
	"audio":    CategoryContent,
	"chore":    CategoryInternal,
	"ci":       CategoryInternal,
	"build":    CategoryInternal,
	"docs":     CategoryInternal,
	"test":     CategoryInternal,
	"refactor": CategoryInternal,
}

var subjectPrefix = regexp.MustCompile(`^([a-zA-Z]+)(\([^)]*\))?!?:\s*`)

// Classify assigns a commit to an announcement category. Conventional-commit
// prefixes win; otherwise keyword heuristics on the subject decide, and
// anything unrecognized counts as a feature so it is not silently dropped.
func Classify(c Commit) Category {
	if m := subjectPrefix.FindStringSubmatch(c.Subject); m != nil {
		if cat, ok := prefixCategories[strings.ToLower(m[1])]; ok {
			return cat
		}
	}

	subject := strings.ToLower(c.Subject)
	switch {
	case containsAny(subject, "fix", "bug", "crash", "typo", "regression"):
		return CategoryFix
	case containsAny(subject, "balance", "nerf", "buff", "tune", "tuning"):
		return CategoryBalance
	case containsAny(subject, "level", "map", "sprite", "sound", "music", "art", "model"):
		return CategoryContent
	case containsAny(subject, "merge", "bump", "version", "readme", "lint", "cleanup"):
		return CategoryInternal
	default:
		return CategoryFeature
	}
}

// PlayerFacing filters out commits players should not see.
func PlayerFacing(commits []Commit) []Commit {
	var out []Commit
	for _, c := range commits {
		if Classify(c) != CategoryInternal {
			out = append(out, c)
		}
	}
	return out
}

// Screenshot directives in a commit body, either as a trailer line or an
// inline bracket token:
//
//	Screenshot: media/boss_arena.png
//	[screenshot: media/boss_arena.png]
var (
	trailerDirective = regexp.MustCompile(`(?mi)^screenshot:\s*(\S+)\s*$`)
	inlineDirective  = regexp.MustCompile(`(?i)\[screenshot:\s*([^\]\s][^\]]*)\]`)
)

// ScreenshotPath extracts a screenshot directive from the commit body. The
// returned path is repository-relative; ok is false when no directive is
// present.
func ScreenshotPath(c Commit) (string, bool) {
	if m := trailerDirective.FindStringSubmatch(c.Body); m != nil {
		return m[1], true
	}
	if m := inlineDirective.FindStringSubmatch(c.Body); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
