// Package templates holds the fixed table of reference templates and loads
// their master files.
package templates

import (
	"context"
	"time"

	"go.uber.org/zap"

	"templatecheck/internal/metrics"
	"templatecheck/internal/model"
	"templatecheck/internal/parser"
)

// definitions registry order is significant: content detection and
// filename detection both walk it front to back.
var definitions = []model.TemplateDefinition{
	{
		ID:            model.TemplateSimplified,
		DisplayName:   "Simplified Template",
		FileName:      "traxxia_simplified_template.xlsx",
		ReferencePath: "/templates/traxxia_simplified_template.xlsx",
		Pattern: model.ContentPattern{
			UniqueHeaders: []string{"quickcash", "basicrevenue", "simplecosts"},
			Keywords:      []string{"simple", "basic", "quick"},
		},
	},
	{
		ID:            model.TemplateStandard,
		DisplayName:   "Standard Template",
		FileName:      "traxxia_standard_template.xlsx",
		ReferencePath: "/templates/traxxia_standard_template.xlsx",
		Pattern: model.ContentPattern{
			UniqueHeaders: []string{"operatingexpenses", "grossmargin", "netoperatingincome"},
			Keywords:      []string{"operating", "gross", "net"},
		},
	},
	{
		ID:            model.TemplateDetailed,
		DisplayName:   "Detailed Template",
		FileName:      "traxxia_detailed_template.xlsx",
		ReferencePath: "/templates/traxxia_detailed_template.xlsx",
		Pattern: model.ContentPattern{
			UniqueHeaders: []string{"comprehensiveincome", "retainedearnings", "workingcapitalchanges"},
			Keywords:      []string{"comprehensive", "retained", "detailed"},
		},
	},
}

// List returns every registered template in registry order.
func List() []model.TemplateDefinition {
	out := make([]model.TemplateDefinition, len(definitions))
	for i, d := range definitions {
		d.Pattern.UniqueHeaders = append([]string(nil), d.Pattern.UniqueHeaders...)
		d.Pattern.Keywords = append([]string(nil), d.Pattern.Keywords...)
		out[i] = d
	}
	return out
}

// Lookup finds a registered template by id.
func Lookup(id model.TemplateID) (model.TemplateDefinition, error) {
	for _, d := range List() {
		if d.ID == id {
			return d, nil
		}
	}
	return model.TemplateDefinition{}, &TemplateNotFoundError{ID: id}
}

// DisplayName human name for an id, "Unknown Template" when unregistered
func DisplayName(id model.TemplateID) string {
	d, err := Lookup(id)
	if err != nil {
		return "Unknown Template"
	}
	return d.DisplayName
}

// Registry loads reference structures from an asset source
type Registry struct {
	source AssetSource
	logger *zap.Logger
}

// NewRegistry 创建模板注册表; a nil logger disables logging.
func NewRegistry(source AssetSource, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		source: source,
		logger: logger,
	}
}

// List returns every registered template in registry order.
func (r *Registry) List() []model.TemplateDefinition {
	return List()
}

// Lookup finds a registered template by id.
func (r *Registry) Lookup(id model.TemplateID) (model.TemplateDefinition, error) {
	return Lookup(id)
}

// LoadReferenceStructure fetches the master file of a template and parses it.
// Every call reads and parses the asset again; wrap the registry in a
// CachedLoader to reuse results.
func (r *Registry) LoadReferenceStructure(ctx context.Context, id model.TemplateID) (*model.ParsedWorkbook, error) {
	def, err := Lookup(id)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	wb, err := r.load(ctx, def)
	metrics.RecordReferenceLoad(string(id), started, err)
	if err != nil {
		fields := []zap.Field{
			zap.String("template", string(id)),
			zap.String("path", def.ReferencePath),
			zap.Error(err),
		}
		if metrics.IsContextDone(err) {
			r.logger.Debug("reference template load canceled", fields...)
		} else {
			r.logger.Error("reference template load failed", fields...)
		}
		return nil, err
	}

	r.logger.Debug("reference template loaded",
		zap.String("template", string(id)),
		zap.Int("sheets", len(wb.SheetNames)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return wb, nil
}

func (r *Registry) load(ctx context.Context, def model.TemplateDefinition) (*model.ParsedWorkbook, error) {
	if r.source == nil {
		return nil, newReferenceLoadError(def, errNoSource)
	}
	data, err := r.source.ReadAsset(ctx, def.ReferencePath)
	if err != nil {
		return nil, newReferenceLoadError(def, err)
	}
	wb, err := parser.Parse(data, def.FileName)
	if err != nil {
		return nil, newReferenceLoadError(def, err)
	}
	return wb, nil
}

// ReadReference returns the raw master file of a template, for download.
func (r *Registry) ReadReference(ctx context.Context, id model.TemplateID) (model.TemplateDefinition, []byte, error) {
	def, err := Lookup(id)
	if err != nil {
		return def, nil, err
	}
	if r.source == nil {
		return def, nil, newReferenceLoadError(def, errNoSource)
	}
	data, err := r.source.ReadAsset(ctx, def.ReferencePath)
	if err != nil {
		return def, nil, newReferenceLoadError(def, err)
	}
	return def, data, nil
}
