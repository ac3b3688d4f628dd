package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/JaimeStill/docket/internal/artifacts"
	"github.com/JaimeStill/docket/internal/bill"
	"github.com/JaimeStill/docket/workflow"
)

// PublishOptions are the fixed fields stamped on every published record.
type PublishOptions struct {
	Deadline         string
	SubmissionMethod string
	VideoDuration    string
}

// Transform converts an enriched record into the published shape the
// website loads.
func Transform(rec *bill.Record, doc workflow.Document, opts PublishOptions) *bill.Published {
	stem := workflow.Stem(doc.Path)

	p := &bill.Published{
		ID:               doc.Slug,
		Title:            stem,
		Summary:          rec.ExecutiveSummary,
		Impacts:          make(map[string]bill.PublishedImpact),
		KeyConcerns:      []bill.PublishedConcern{},
		Provisions:       []bill.PublishedProvision{},
		NotebookLMVideo:  bill.Video{URL: "", Duration: opts.VideoDuration},
		Deadline:         opts.Deadline,
		SubmissionMethod: opts.SubmissionMethod,
		RelatedBills:     []string{},
	}

	if p.Summary == "" {
		p.Summary = "Analysis of " + stem
	}

	if rec.Metadata != nil {
		if rec.Metadata.Title != "" {
			p.Title = rec.Metadata.Title
		}
		p.PDFPath = rec.Metadata.PDFPath
	}

	for topic, analysis := range rec.ImpactAnalyses {
		description := analysis.Analysis
		p.Impacts[topic.Key()] = bill.PublishedImpact{
			Score:             analysis.Score,
			Description:       &description,
			RelatedProvisions: []string{},
		}
	}

	for _, s := range rec.Provisions() {
		related := []string{}

		if s.Impact != nil {
			for _, topic := range bill.Topics() {
				level, ok := s.Impact.Levels[topic]
				if !ok || level == bill.Neutral {
					continue
				}
				key := topic.Key()
				related = append(related, key)

				impact, ok := p.Impacts[key]
				if !ok {
					impact = bill.PublishedImpact{Score: bill.Neutral, RelatedProvisions: []string{}}
				}
				impact.RelatedProvisions = append(impact.RelatedProvisions, s.ID)
				p.Impacts[key] = impact
			}
		}

		p.Provisions = append(p.Provisions, bill.PublishedProvision{
			ID:             s.ID,
			Section:        s.Index,
			Title:          s.Title,
			PlainLanguage:  s.Summary,
			RawText:        s.RawText,
			RelatedImpacts: related,
		})
	}

	for _, c := range rec.KeyConcerns {
		impacts := make([]string, 0, len(c.RelatedImpacts))
		for _, topic := range c.RelatedImpacts {
			impacts = append(impacts, topic.Key())
		}

		p.KeyConcerns = append(p.KeyConcerns, bill.PublishedConcern{
			ID:                c.ID,
			Title:             c.Title,
			Severity:          c.Severity,
			Description:       c.Description,
			RelatedProvisions: c.RelatedProvisions,
			RelatedImpacts:    impacts,
		})
	}

	return p
}

func publishStage(rt *Runtime) workflow.Stage {
	return workflow.Stage{
		Name:        NamePublish,
		Description: "web transform",
		Artifact:    artifacts.Format{Suffix: ".json", Published: true},
		Run: func(ctx context.Context, doc workflow.Document, input []byte) (artifacts.Artifact, error) {
			rec, err := bill.Decode(input)
			if err != nil {
				return artifacts.Artifact{}, err
			}

			p := Transform(rec, doc, PublishOptions{
				Deadline:         rt.Publish.Deadline,
				SubmissionMethod: rt.Publish.SubmissionMethod,
				VideoDuration:    rt.Publish.VideoDuration,
			})

			data, err := p.Encode()
			if err != nil {
				return artifacts.Artifact{}, fmt.Errorf("%w: encode: %w", ErrPublishFailed, err)
			}

			if p.PDFPath != nil {
				if err := rt.copyPDF(ctx, doc); err != nil {
					return artifacts.Artifact{}, err
				}
			}

			return artifacts.Artifact{Data: data}, nil
		},
		Validate: func(data []byte) error {
			var p bill.Published
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("%w: %w", bill.ErrInvalidRecord, err)
			}
			return p.Validate()
		},
		Yield: func([]byte) workflow.Yield {
			return workflow.Yield{"published": 1}
		},
	}
}

// copyPDF places the source PDF in public storage so the published
// pdfPath resolves on the website.
func (rt *Runtime) copyPDF(ctx context.Context, doc workflow.Document) error {
	if rt.Public == nil {
		return nil
	}

	if workflow.IsDryRun(ctx) {
		rt.Logger.InfoContext(ctx, "dry run, pdf copy skipped", "document", doc.Slug)
		return nil
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		if os.IsNotExist(err) {
			rt.Logger.WarnContext(ctx, "source pdf missing, copy skipped", "document", doc.Slug)
			return nil
		}
		return fmt.Errorf("%w: open source: %w", ErrPublishFailed, err)
	}
	defer f.Close()

	if err := rt.Public.Upload(ctx, doc.Name, f, "application/pdf"); err != nil {
		return fmt.Errorf("%w: copy pdf: %w", ErrPublishFailed, err)
	}

	rt.Logger.InfoContext(ctx, "pdf copied", "document", doc.Slug, "key", doc.Name)
	return nil
}
