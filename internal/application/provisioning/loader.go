package provisioning

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BundleSource lists and opens template bundle files.
type BundleSource interface {
	// List returns the names of the *.json bundles the source holds
	List(ctx context.Context) ([]string, error)
	// Open opens one bundle by name
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// SeedResult counts what a seed run did.
type SeedResult struct {
	FilesSeen        int `json:"files_seen"`
	FilesFailed      int `json:"files_failed"`
	TemplatesCreated int `json:"templates_created"`
	TemplatesSkipped int `json:"templates_skipped"`
	ItemsCreated     int `json:"items_created"`
	ItemsSkipped     int `json:"items_skipped"`
}

// DefaultFetchConcurrency bounds concurrent bundle downloads.
const DefaultFetchConcurrency = 4

// Seeder loads template bundles into the template store.
type Seeder struct {
	templates   provisioning.TemplateRepository
	txScope     TransactionScope
	source      BundleSource
	concurrency int
	logger      *zap.Logger
}

// NewSeeder creates a new Seeder
func NewSeeder(templates provisioning.TemplateRepository, txScope TransactionScope, source BundleSource, logger *zap.Logger) *Seeder {
	return &Seeder{
		templates:   templates,
		txScope:     txScope,
		source:      source,
		concurrency: DefaultFetchConcurrency,
		logger:      logger,
	}
}

// WithConcurrency sets how many bundles are fetched at once
func (s *Seeder) WithConcurrency(n int) *Seeder {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

type fetchedBundle struct {
	name string
	doc  *BundleDocument
	err  error
}

// Seed loads every bundle from the source, but only when the store has never
// held a template. Files are fetched concurrently and persisted one at a time
// in name order. A file that cannot be read or stored is logged and skipped.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "provisioning.seed_templates")
	defer span.End()

	result := &SeedResult{}
	count, err := s.templates.Count(ctx)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}
	if count > 0 {
		s.logger.Info("template store already seeded, skipping", zap.Int64("templates", count))
		return result, nil
	}

	names, err := s.source.List(ctx)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, fmt.Errorf("failed to list template bundles: %w", err)
	}
	names = jsonNames(names)
	result.FilesSeen = len(names)

	fetched := make([]fetchedBundle, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range names {
		g.Go(func() error {
			doc, err := s.fetch(gctx, name)
			fetched[i] = fetchedBundle{name: name, doc: doc, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range fetched {
		if f.err != nil {
			s.logger.Error("failed to read template bundle", zap.String("file", f.name), zap.Error(f.err))
			result.FilesFailed++
			continue
		}
		if err := s.persist(ctx, f.name, f.doc, result); err != nil {
			s.logger.Error("failed to store template bundle", zap.String("file", f.name), zap.Error(err))
			result.FilesFailed++
		}
	}

	telemetry.Counts(span, map[string]int{
		"files_seen":        result.FilesSeen,
		"templates_created": result.TemplatesCreated,
		"items_created":     result.ItemsCreated,
	})
	s.logger.Info("template seeding finished",
		zap.Int("files", result.FilesSeen),
		zap.Int("failed", result.FilesFailed),
		zap.Int("templates_created", result.TemplatesCreated),
		zap.Int("templates_skipped", result.TemplatesSkipped),
		zap.Int("items_created", result.ItemsCreated),
		zap.Int("items_skipped", result.ItemsSkipped),
	)
	return result, nil
}

// SeedFile loads one bundle regardless of whether the store was seeded before.
// A template whose code already exists is still skipped.
func (s *Seeder) SeedFile(ctx context.Context, name string) (*SeedResult, error) {
	result := &SeedResult{FilesSeen: 1}
	doc, err := s.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, name, doc, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Seeder) fetch(ctx context.Context, name string) (*BundleDocument, error) {
	rc, err := s.source.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseBundle(rc)
}

func (s *Seeder) persist(ctx context.Context, name string, doc *BundleDocument, result *SeedResult) error {
	if doc.Template == nil {
		s.logger.Warn("bundle has no template block, skipping", zap.String("file", name))
		result.TemplatesSkipped++
		return nil
	}
	code := strings.TrimSpace(doc.Template.Code)
	exists, err := s.templates.ExistsByCode(ctx, code)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Info("template already exists, skipping bundle", zap.String("file", name), zap.String("code", code))
		result.TemplatesSkipped++
		return nil
	}

	tmpl, err := newTemplateFromBundle(doc.Template)
	if err != nil {
		return err
	}
	dropped := addBundleItems(tmpl, doc.Items)
	for _, d := range dropped {
		s.logger.Warn("skipping bundle item",
			zap.String("file", name),
			zap.Int("index", d.Index),
			zap.String("entity_type", d.EntityType),
			zap.String("reason", d.Reason),
		)
	}
	accepted, skipped := len(tmpl.Items), len(dropped)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		return saveTemplateWithItems(ctx, repos.TemplateRepo(), tmpl)
	})
	if err != nil {
		return err
	}
	result.TemplatesCreated++
	result.ItemsCreated += accepted
	result.ItemsSkipped += skipped
	s.logger.Info("seeded template",
		zap.String("file", name),
		zap.String("code", tmpl.Code),
		zap.Int("items", accepted),
	)
	return nil
}

// newTemplateFromBundle builds a template from a bundle's metadata block.
func newTemplateFromBundle(meta *BundleTemplate) (*provisioning.Template, error) {
	tmpl, err := provisioning.NewTemplate(meta.Code, meta.Name, meta.Type)
	if err != nil {
		return nil, err
	}
	if meta.Version != nil {
		if err := tmpl.SetRevision(*meta.Version); err != nil {
			return nil, err
		}
	}
	if meta.IsActive != nil && !*meta.IsActive {
		tmpl.Deactivate()
	}
	if err := tmpl.SetDescription(meta.Description); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func saveTemplateWithItems(ctx context.Context, repo provisioning.TemplateRepository, tmpl *provisioning.Template) error {
	if err := repo.Save(ctx, tmpl); err != nil {
		return err
	}
	for i := range tmpl.Items {
		if err := repo.SaveItem(ctx, &tmpl.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

func jsonNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.EqualFold(path.Ext(n), ".json") {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
