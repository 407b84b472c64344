// Package wishlistops automates drafting of Steam community announcements
// from git commit history, with a human-in-the-loop Discord approval gate
// before anything reaches players.
//
// The pipeline runs seven steps: read commits since the last announcement,
// classify and filter them, draft the announcement text with an LLM, locate
// a screenshot, compose a banner from it, post the draft for review on
// Discord, and publish once a human approves.
//
// Basic usage:
//
//	cfg, err := config.Load("wishlistops.yml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	session, err := discordgo.New("Bot " + os.Getenv("DISCORD_TOKEN"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	chat := draft.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), "", cfg.Draft.Model)
//
//	pipeline, err := wishlistops.New(cfg, &discord.DiscordSession{Session: session}, chat)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := pipeline.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// The banner compositor (pkg/banner and its leaf packages) is the
// algorithmic core: it decides which region of an arbitrary screenshot to
// keep and how to enlarge it to the Steam banner size without visible
// artifacts, with deterministic fallbacks when the content-aware or
// filtering capability is disabled.
package wishlistops

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesthegreati/WishlistOps-sub001/internal/config"
	"github.com/jamesthegreati/WishlistOps-sub001/internal/state"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/banner"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/compose"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/cropper"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/discord"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/draft"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/enhance"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/gitlog"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/vision"
)

// Version of the wishlistops library.
const Version = "1.0.0"

// Pipeline ties the collaborators together for one game.
type Pipeline struct {
	cfg      *config.Config
	banners  *banner.Generator
	request  banner.Request
	logo     []byte
	drafts   *draft.Generator
	notifier *discord.Notifier
	history  *state.State
	reader   *gitlog.Reader

	// DryRun skips the Discord gate and publishing; the draft and banner
	// are only logged and written locally.
	DryRun bool
	// OutDir receives the banner PNG in dry runs.
	OutDir string
	// Since overrides the recorded last-published ref for this run.
	Since string
}

// New wires a Pipeline from configuration. Capabilities are resolved here,
// once, and threaded into the banner generator.
func New(cfg *config.Config, session discord.Session, chat draft.ChatClient) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	mode, err := cropper.ParseMode(cfg.Banner.CropMode)
	if err != nil {
		return nil, err
	}
	position, err := compose.ParsePosition(cfg.Banner.LogoPosition)
	if err != nil {
		return nil, err
	}

	var logo []byte
	if cfg.Banner.LogoPath != "" {
		logo, err = os.ReadFile(cfg.Banner.LogoPath)
		if err != nil {
			return nil, fmt.Errorf("read logo: %w", err)
		}
	}

	history, err := state.Load(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	selector := cropper.NewSelector(vision.Detect(cfg.Banner.DisableSmartCrop))
	enhancer := enhance.Detect(cfg.Banner.DisableEnhancement)

	p := &Pipeline{
		cfg:     cfg,
		banners: banner.NewGenerator(selector, enhancer),
		request: banner.Request{
			Width:  cfg.Banner.Width,
			Height: cfg.Banner.Height,
			Mode:   mode,
			Profile: enhance.Profile{
				SharpenAmount: cfg.Banner.Profile.SharpenAmount,
				SharpenSigma:  cfg.Banner.Profile.SharpenSigma,
				DenoiseRadius: cfg.Banner.Profile.DenoiseRadius,
				DenoiseSigma:  cfg.Banner.Profile.DenoiseSigma,
				ClipLimit:     cfg.Banner.Profile.ClipLimit,
				TileGrid:      cfg.Banner.Profile.TileGrid,
			},
			Logo:         logo,
			LogoPosition: position,
			LogoScale:    cfg.Banner.LogoScale,
			LogoMargin:   cfg.Banner.LogoMargin,
		},
		drafts:   draft.NewGenerator(chat, cfg.Game),
		notifier: discord.NewNotifier(session, cfg.Discord.ReviewChannel, cfg.Discord.AnnounceChannel),
		history:  history,
		reader:   gitlog.NewReader(cfg.RepoDir),
	}
	return p, nil
}

// Run executes one announcement cycle. A banner failure never blocks the
// announcement; the draft proceeds without an attachment.
func (p *Pipeline) Run(ctx context.Context) error {
	ref := p.history.LastPublishedHash
	if p.Since != "" {
		ref = p.Since
	}
	commits, err := p.reader.CommitsSince(ctx, ref)
	if err != nil {
		return err
	}
	facing := gitlog.PlayerFacing(commits)
	if len(facing) == 0 {
		log.Printf("no player-facing commits since %q, nothing to announce", ref)
		return nil
	}
	log.Printf("drafting announcement for %d commits (%d player-facing)", len(commits), len(facing))

	ann, err := p.drafts.Draft(ctx, facing)
	if err != nil {
		return err
	}

	res := p.generateBanner(commits)

	if p.DryRun {
		return p.writeDryRun(ann, res)
	}

	msgID, err := p.notifier.PostDraft(ann, res)
	if err != nil {
		return err
	}

	approved, err := p.notifier.AwaitApproval(ctx, msgID, time.Duration(p.cfg.Discord.PollSeconds)*time.Second)
	if err != nil {
		return err
	}
	if !approved {
		log.Printf("draft %q rejected by reviewer", ann.Title)
		return nil
	}

	if err := p.notifier.Publish(ann, res); err != nil {
		return err
	}

	p.history.MarkPublished(commits[0].Hash, ann.Title, time.Now())
	return p.history.Save(p.cfg.StatePath)
}

// generateBanner locates a screenshot and composes the banner. Commit
// directives win over the configured default; any failure is logged and the
// announcement proceeds without a banner.
func (p *Pipeline) generateBanner(commits []gitlog.Commit) *banner.Result {
	path := p.cfg.DefaultScreenshot
	for _, c := range commits {
		if directive, ok := gitlog.ScreenshotPath(c); ok {
			path = filepath.Join(p.cfg.RepoDir, directive)
			break
		}
	}
	if path == "" {
		log.Printf("no screenshot available, announcement will have no banner")
		return nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		log.Printf("read screenshot %s: %v", path, err)
		return nil
	}

	res, err := p.banners.Generate(src, p.request)
	if err != nil {
		log.Printf("banner generation failed for %s: %v", path, err)
		return nil
	}
	log.Printf("banner %dx%d from region (%d,%d %dx%d) mode=%s crop_fallback=%v enhance_fallback=%v",
		res.Width, res.Height, res.Region.X, res.Region.Y, res.Region.Width, res.Region.Height,
		res.Mode, res.CropFallback, res.EnhanceFallback)
	return res
}

// writeDryRun prints the draft and drops the banner PNG next to the state
// file for inspection.
func (p *Pipeline) writeDryRun(ann *draft.Announcement, res *banner.Result) error {
	log.Printf("dry run: %s\n\n%s", ann.Title, ann.Body)
	if res == nil {
		return nil
	}
	dir := p.OutDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	out := filepath.Join(dir, "banner.png")
	if err := os.WriteFile(out, res.PNG, 0644); err != nil {
		return err
	}
	log.Printf("wrote %s", out)
	return nil
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
