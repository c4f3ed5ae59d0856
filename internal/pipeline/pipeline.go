// Package pipeline wires the newsletter stages together: export, gather,
// curate, render and send. Each stage reads and writes the intermediate
// artifacts so stages can also run standalone.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/makerletter/internal/config"
	"github.com/edgard/makerletter/internal/curate"
	"github.com/edgard/makerletter/internal/database"
	"github.com/edgard/makerletter/internal/errs"
	"github.com/edgard/makerletter/internal/export"
	"github.com/edgard/makerletter/internal/gather"
	"github.com/edgard/makerletter/internal/gemini"
	"github.com/edgard/makerletter/internal/listmonk"
	"github.com/edgard/makerletter/internal/newsletter"
	"github.com/edgard/makerletter/internal/preview"
)

// SendOptions adjusts a single send operation.
type SendOptions struct {
	// DryRun creates the campaign but does not start it.
	DryRun bool
	// Subject overrides the generated campaign subject.
	Subject string
	// Name overrides the generated campaign name.
	Name string
}

// Pipeline holds the shared dependencies of all stages.
type Pipeline struct {
	cfg      *config.Config
	store    database.Store
	ai       gemini.Client
	listmonk *listmonk.Client
	log      *slog.Logger
	runID    string
}

// New assembles a pipeline from its dependencies. The store and AI client
// may be nil when the selected stages do not need them.
func New(cfg *config.Config, store database.Store, ai gemini.Client, log *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		ai:       ai,
		listmonk: listmonk.NewClient(cfg.Listmonk, log),
		log:      log.With("component", "pipeline"),
		runID:    uuid.NewString(),
	}
}

// Export runs the external exporter to refresh the channel export files.
func (p *Pipeline) Export(ctx context.Context) error {
	runner := export.NewRunner(p.cfg.Export, p.log)
	if err := runner.Run(ctx); err != nil {
		return errs.Wrap(errs.CodeExport, "export stage failed", err)
	}
	return nil
}

// Gather scans the export files for links and writes the contexts document
// and the flat link list.
func (p *Pipeline) Gather(ctx context.Context) error {
	paths, err := gather.FindExports(p.cfg.Export.OutputDir)
	if err != nil {
		return errs.Wrap(errs.CodeParse, "gather stage failed", err)
	}
	if len(paths) == 0 {
		return errs.Newf(errs.CodeParse, "no export files found in %s", p.cfg.Export.OutputDir)
	}

	var previewer gather.Previewer
	if p.cfg.Gather.FetchPreviews {
		fetcher := preview.NewFetcher(p.cfg.Gather, p.log)
		var summarizer preview.Summarizer
		if p.ai != nil {
			summarizer = p.ai
		}
		previewer = preview.NewPreviewer(fetcher, p.store, summarizer, p.log)
	}

	g := gather.New(p.cfg.Gather, previewer, p.log)
	result, err := g.Process(ctx, paths)
	if err != nil {
		return errs.Wrap(errs.CodeParse, "gather stage failed", err)
	}

	if err := gather.WriteContexts(p.cfg.Gather.ContextsFile, result.Contexts); err != nil {
		return errs.Wrap(errs.CodeParse, "failed to write contexts", err)
	}
	if err := gather.WriteLinkList(p.cfg.Gather.LinksFile, result.Links); err != nil {
		return errs.Wrap(errs.CodeParse, "failed to write link list", err)
	}

	p.log.Info("Gather stage completed",
		"exports", len(paths),
		"contexts", len(result.Contexts),
		"links", len(result.Links),
		"earliest", result.Earliest,
		"latest", result.Latest)
	return nil
}

// Curate asks the AI to select and group the gathered links, writing the
// curated payload artifact.
func (p *Pipeline) Curate(ctx context.Context) error {
	if p.ai == nil {
		return errs.New(errs.CodeCurate, "AI client is not configured (set gemini.api_key)")
	}

	contexts, err := gather.ReadContexts(p.cfg.Gather.ContextsFile)
	if err != nil {
		return errs.Wrap(errs.CodeCurate, "curate stage failed", err)
	}

	payload, err := curate.Curate(ctx, p.ai, contexts, p.log)
	if err != nil {
		return errs.Wrap(errs.CodeCurate, "curate stage failed", err)
	}

	if err := newsletter.WritePayload(p.cfg.Newsletter.CuratedFile, payload); err != nil {
		return errs.Wrap(errs.CodeCurate, "failed to write curated payload", err)
	}
	return nil
}

// Render builds the newsletter HTML from the curated payload and the
// template, optionally inlining CSS. Without a curated payload it degrades
// to the flat link list from the gather stage.
func (p *Pipeline) Render(ctx context.Context) error {
	return p.render(ctx, true)
}

// render does the work of Render. When useCurated is false the curated
// payload is ignored even if one exists on disk, so a run that skipped
// curation cannot pick up a stale artifact from an earlier run.
func (p *Pipeline) render(ctx context.Context, useCurated bool) error {
	tmpl, err := os.ReadFile(p.cfg.Newsletter.TemplatePath)
	if err != nil {
		return errs.Wrap(errs.CodeTemplate, "failed to read template", err)
	}

	vars := map[string]string{newsletter.PlaceholderIntro: p.cfg.Newsletter.Intro}

	var payload *newsletter.Payload
	if useCurated {
		payload, _ = newsletter.ReadPayload(p.cfg.Newsletter.CuratedFile)
	}
	if payload != nil {
		if payload.Intro != "" {
			vars[newsletter.PlaceholderIntro] = payload.Intro
		}
		vars[newsletter.PlaceholderLinkContent] = newsletter.RenderGroups(payload)
		vars[newsletter.PlaceholderLinks] = newsletter.RenderLinkList(payload.URLs())
		p.log.Info("Rendering curated newsletter", "links", payload.TotalLinks())
	} else {
		links, linksErr := gather.ReadLinkList(p.cfg.Gather.LinksFile)
		if linksErr != nil {
			return errs.Wrap(errs.CodeTemplate, "no curated payload and no link list to render", linksErr)
		}
		flat := newsletter.RenderLinkList(links)
		vars[newsletter.PlaceholderLinks] = flat
		vars[newsletter.PlaceholderLinkContent] = "<ul>" + flat + "</ul>"
		p.log.Info("Rendering uncurated link list", "links", len(links))
	}

	rendered, err := newsletter.RenderTemplate(string(tmpl), vars)
	if err != nil {
		return errs.Wrap(errs.CodeTemplate, "render stage failed", err)
	}

	if p.cfg.Newsletter.InlineCSS {
		inlined, err := newsletter.InlineCSS(rendered)
		if err != nil {
			return errs.Wrap(errs.CodeTemplate, "failed to inline CSS", err)
		}
		rendered = inlined
	}

	if err := os.WriteFile(p.cfg.Newsletter.OutputFile, []byte(rendered), 0o644); err != nil {
		return errs.Wrap(errs.CodeTemplate, "failed to write newsletter", err)
	}

	p.log.Info("Render stage completed", "output", p.cfg.Newsletter.OutputFile)
	return nil
}

// Send creates a Listmonk campaign from the rendered newsletter and starts
// it unless a dry run was requested.
func (p *Pipeline) Send(ctx context.Context, opts SendOptions) error {
	body, err := os.ReadFile(p.cfg.Newsletter.OutputFile)
	if err != nil {
		return errs.Wrap(errs.CodeSend, "failed to read rendered newsletter", err)
	}

	subject := opts.Subject
	if subject == "" {
		subject = fmt.Sprintf("%s newsletter, %s", p.cfg.Gemini.CommunityName, time.Now().Format("January 2006"))
	}
	name := opts.Name
	if name == "" {
		name = subject
	}

	if p.store != nil {
		count, err := p.store.CountCampaignsBySubject(ctx, subject)
		if err != nil {
			p.log.Warn("Failed to check for prior campaigns", "error", err)
		} else if count > 0 {
			p.log.Warn("A campaign with this subject was already sent, creating another",
				"subject", subject, "prior_campaigns", count)
		}
	}

	req := listmonk.CampaignRequest{
		Name:        name,
		Subject:     subject,
		Lists:       []int{p.cfg.Listmonk.ListID},
		ContentType: p.cfg.Listmonk.ContentType,
		Body:        string(body),
		Messenger:   "email",
		Type:        "regular",
		Tags:        p.cfg.Listmonk.Tags,
		TemplateID:  p.cfg.Listmonk.TemplateID,
		FromEmail:   p.cfg.Listmonk.FromEmail,
	}

	campaignID, err := p.listmonk.CreateCampaign(ctx, req)
	if err != nil {
		return errs.Wrap(errs.CodeSend, "send stage failed", err)
	}

	if p.store != nil {
		record := &database.Campaign{
			RunID:      p.runID,
			CampaignID: campaignID,
			Subject:    subject,
			ListID:     p.cfg.Listmonk.ListID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := p.store.SaveCampaign(ctx, record); err != nil {
			p.log.Warn("Failed to record campaign", "error", err)
		}
	}

	if opts.DryRun {
		p.log.Info("Dry run, campaign created but not started", "campaign_id", campaignID)
		return nil
	}

	if err := p.listmonk.StartCampaign(ctx, campaignID); err != nil {
		return errs.Wrap(errs.CodeSend, "send stage failed", err)
	}
	return nil
}

// Run executes the full pipeline end to end.
func (p *Pipeline) Run(ctx context.Context, opts SendOptions) error {
	p.log.Info("Starting pipeline run", "run_id", p.runID)
	start := time.Now()

	curated := p.ai != nil
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"export", p.Export},
		{"gather", p.Gather},
		{"curate", p.Curate},
		{"render", func(ctx context.Context) error { return p.render(ctx, curated) }},
		{"send", func(ctx context.Context) error { return p.Send(ctx, opts) }},
	}
	if !curated {
		// Without an AI client the run degrades to the freshly gathered
		// link list, leaving any curated payload from earlier runs unread.
		p.log.Warn("No AI client configured, skipping curation")
		stages = append(stages[:2], stages[3:]...)
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stage.fn(ctx); err != nil {
			return err
		}
	}

	p.log.Info("Pipeline run completed", "run_id", p.runID, "duration", time.Since(start))
	return nil
}
