// Package classifier identifies which registered template an uploaded
// workbook was built from.
//
// Detection is a cascade; the first stage that produces a result wins:
//
//	A. filename        score 1.0, confidence high
//	B. unique headers  score 0.9, confidence high
//	C. column count    score 0.7, confidence medium
package classifier

import (
	"fmt"
	"strings"

	"templatecheck/internal/metrics"
	"templatecheck/internal/model"
	"templatecheck/internal/parser"
	"templatecheck/internal/templates"
)

const (
	FilenameScore    = 1.0
	ContentScore     = 0.9
	ColumnCountScore = 0.7

	// ContentThreshold matched/possible ratio a template must exceed in Stage B.
	ContentThreshold = 0.3

	simplifiedMaxColumns = 10
	standardMaxColumns   = 25
)

// Ranking picks a winner when several templates pass the content threshold
type Ranking string

const (
	// RankFirstMatch first template in registry order above the threshold.
	RankFirstMatch Ranking = "first_match"
	// RankBestScore highest match ratio; registry order breaks ties.
	RankBestScore Ranking = "best_score"
)

// ParseRanking maps a config value to a Ranking; "" means RankFirstMatch.
func ParseRanking(s string) (Ranking, error) {
	switch Ranking(strings.ToLower(strings.TrimSpace(s))) {
	case "", RankFirstMatch:
		return RankFirstMatch, nil
	case RankBestScore:
		return RankBestScore, nil
	default:
		return "", fmt.Errorf("unknown classifier ranking %q", s)
	}
}

// Classifier stateless template detector
type Classifier struct {
	ranking     Ranking
	definitions []model.TemplateDefinition
}

// Option configures a Classifier
type Option func(*Classifier)

// WithRanking sets the Stage B ranking policy.
func WithRanking(r Ranking) Option {
	return func(c *Classifier) {
		if r != "" {
			c.ranking = r
		}
	}
}

// New 创建分类器
func New(opts ...Option) *Classifier {
	c := &Classifier{
		ranking:     RankFirstMatch,
		definitions: templates.List(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ranking active Stage B ranking policy
func (c *Classifier) Ranking() Ranking {
	return c.ranking
}

var defaultClassifier = New()

// Classify runs the cascade with first-match ranking.
func Classify(wb *model.ParsedWorkbook, fileName string) model.ClassificationResult {
	return defaultClassifier.Classify(wb, fileName)
}

// Classify runs the cascade. A nil workbook is unknown.
func (c *Classifier) Classify(wb *model.ParsedWorkbook, fileName string) model.ClassificationResult {
	result := c.classify(wb, fileName)
	metrics.ClassificationsTotal.WithLabelValues(
		string(result.TemplateID), string(result.Stage), string(result.ConfidenceTier),
	).Inc()
	return result
}

func (c *Classifier) classify(wb *model.ParsedWorkbook, fileName string) model.ClassificationResult {
	if wb == nil {
		return model.UnknownClassification()
	}
	if id, ok := c.byFilename(fileName); ok {
		return c.result(id, FilenameScore, model.ConfidenceHigh, model.StageFilename)
	}
	if id, ok := c.byContent(wb); ok {
		return c.result(id, ContentScore, model.ConfidenceHigh, model.StageContent)
	}
	return c.result(byColumnCount(wb), ColumnCountScore, model.ConfidenceMedium, model.StageColumnCount)
}

func (c *Classifier) result(id model.TemplateID, score float64, tier model.ConfidenceTier, stage model.DetectionStage) model.ClassificationResult {
	return model.ClassificationResult{
		TemplateID:     id,
		DisplayName:    templates.DisplayName(id),
		Score:          score,
		ConfidenceTier: tier,
		Stage:          stage,
	}
}

// byFilename Stage A: the template id appears in the file name.
func (c *Classifier) byFilename(fileName string) (model.TemplateID, bool) {
	name := strings.ToLower(fileName)
	if name == "" {
		return "", false
	}
	for _, d := range c.definitions {
		if strings.Contains(name, string(d.ID)) {
			return d.ID, true
		}
	}
	return "", false
}

// byContent Stage B. Headers that normalize to "" stay in the list: every
// unique header contains the empty string, so they count as matches.
func (c *Classifier) byContent(wb *model.ParsedWorkbook) (model.TemplateID, bool) {
	headers := parser.NormalizeHeaders(wb.AllHeaders())
	if len(headers) == 0 {
		return "", false
	}
	joined := strings.Join(headers, "|")

	var (
		best      model.TemplateID
		bestRatio float64
	)
	for _, d := range c.definitions {
		ratio, ok := contentRatio(d.Pattern, headers, joined)
		if !ok {
			continue
		}
		if c.ranking == RankFirstMatch {
			return d.ID, true
		}
		if ratio > bestRatio {
			best, bestRatio = d.ID, ratio
		}
	}
	return best, best != ""
}

// contentRatio matched/possible for one pattern; ok when it passes the threshold.
func contentRatio(p model.ContentPattern, headers []string, joined string) (float64, bool) {
	possible := p.Signals()
	if possible == 0 {
		return 0, false
	}

	matches := 0
	for _, u := range p.UniqueHeaders {
		for _, h := range headers {
			if strings.Contains(h, u) || strings.Contains(u, h) {
				matches++
				break
			}
		}
	}
	for _, k := range p.Keywords {
		if strings.Contains(joined, k) {
			matches++
		}
	}

	ratio := float64(matches) / float64(possible)
	return ratio, matches > 0 && ratio > ContentThreshold
}

// byColumnCount Stage C; always produces a template.
func byColumnCount(wb *model.ParsedWorkbook) model.TemplateID {
	switch n := wb.TotalHeaders(); {
	case n <= simplifiedMaxColumns:
		return model.TemplateSimplified
	case n <= standardMaxColumns:
		return model.TemplateStandard
	default:
		return model.TemplateDetailed
	}
}
