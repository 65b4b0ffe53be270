package classifier_test

import (
	"context"
	"testing"

	"templatecheck/internal/classifier"
	"templatecheck/internal/model"
	"templatecheck/internal/parser"
	"templatecheck/internal/templates"
	"templatecheck/internal/testutil"
)

func TestClassify_FilenameWins(t *testing.T) {
	// Content that would otherwise classify as detailed.
	wb := testutil.Workbook("x", testutil.HeaderSheet("Income Statement", true,
		"Comprehensive Income", "Retained Earnings", "Working Capital Changes"))

	tests := []struct {
		fileName string
		want     model.TemplateID
	}{
		{"Q3_Standard_Report.xlsx", model.TemplateStandard},
		{"traxxia_simplified_template.xlsx", model.TemplateSimplified},
		{"DETAILED.csv", model.TemplateDetailed},
		// simplified is checked before standard
		{"simplified-vs-standard.xlsx", model.TemplateSimplified},
	}
	for _, tt := range tests {
		got := classifier.Classify(wb, tt.fileName)
		if got.TemplateID != tt.want {
			t.Fatalf("%s: template = %s, want %s", tt.fileName, got.TemplateID, tt.want)
		}
		if got.Score != classifier.FilenameScore || got.ConfidenceTier != model.ConfidenceHigh {
			t.Fatalf("%s: got score %v tier %s, want 1.0 high", tt.fileName, got.Score, got.ConfidenceTier)
		}
		if got.Stage != model.StageFilename {
			t.Fatalf("%s: stage = %s", tt.fileName, got.Stage)
		}
	}
}

func TestClassify_ContentStage(t *testing.T) {
	wb := testutil.Workbook("report.xlsx",
		testutil.HeaderSheet("Data", true, "Quick Cash", "Basic Revenue", "Simple Costs"))

	got := classifier.Classify(wb, "report.xlsx")
	if got.TemplateID != model.TemplateSimplified || got.Stage != model.StageContent {
		t.Fatalf("got %+v, want simplified via content", got)
	}
	if got.Score != classifier.ContentScore || got.ConfidenceTier != model.ConfidenceHigh {
		t.Fatalf("got score %v tier %s, want 0.9 high", got.Score, got.ConfidenceTier)
	}
	if got.DisplayName != "Simplified Template" {
		t.Fatalf("display name = %q", got.DisplayName)
	}
}

// The five headers of the simplified master share only "revenue" with the
// simplified pattern but hit four standard signals.
func TestClassify_SimplifiedHeadersDetectAsStandard(t *testing.T) {
	data := testutil.BuildCSV(t,
		[]string{"Revenue", "Net Income", "Operating Expenses", "Gross Profit", "Revenue Trends"},
		[]string{"100", "10", "50", "40", "up"},
	)
	wb, err := parser.Parse(data, "my_report.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := classifier.Classify(wb, "my_report.csv")
	if got.TemplateID != model.TemplateStandard || got.Stage != model.StageContent {
		t.Fatalf("got %+v, want standard via content", got)
	}
}

func TestClassify_ColumnCountBoundaries(t *testing.T) {
	tests := []struct {
		columns int
		want    model.TemplateID
	}{
		{1, model.TemplateSimplified},
		{10, model.TemplateSimplified},
		{11, model.TemplateStandard},
		{25, model.TemplateStandard},
		{26, model.TemplateDetailed},
		{60, model.TemplateDetailed},
	}
	for _, tt := range tests {
		wb := testutil.Workbook("data.xlsx", testutil.HeaderSheet("Data", true, testutil.Columns(tt.columns)...))
		got := classifier.Classify(wb, "data.xlsx")
		if got.TemplateID != tt.want {
			t.Fatalf("%d columns: template = %s, want %s", tt.columns, got.TemplateID, tt.want)
		}
		if got.Score != classifier.ColumnCountScore || got.ConfidenceTier != model.ConfidenceMedium {
			t.Fatalf("%d columns: score %v tier %s, want 0.7 medium", tt.columns, got.Score, got.ConfidenceTier)
		}
	}
}

func TestClassify_CountsHeadersAcrossSheets(t *testing.T) {
	wb := testutil.Workbook("data.xlsx",
		testutil.HeaderSheet("A", true, testutil.Columns(6)...),
		testutil.HeaderSheet("B", false, testutil.Columns(5)...),
	)
	if got := classifier.Classify(wb, "data.xlsx"); got.TemplateID != model.TemplateStandard {
		t.Fatalf("11 headers over two sheets: got %s, want standard", got.TemplateID)
	}
}

func TestClassify_EmptyNormalizedHeadersMatchUniqueHeaders(t *testing.T) {
	// "#" normalizes to "", which every unique header contains.
	headers := []string{"#", "Alpha", "Beta", "Gamma", "Delta", "Epsilon",
		"Zeta", "Eta", "Theta", "Iota", "Kappa", "Lambda"}
	wb := testutil.Workbook("x.csv", testutil.HeaderSheet("Sheet1", true, headers...))

	got := classifier.Classify(wb, "x.csv")
	if got.TemplateID != model.TemplateSimplified {
		t.Fatalf("template = %s, want simplified", got.TemplateID)
	}
	if got.Stage != model.StageContent || got.Score != classifier.ContentScore || got.ConfidenceTier != model.ConfidenceHigh {
		t.Fatalf("got %+v, want content stage 0.9 high", got)
	}
}

func TestClassify_OnlyBlankNormalizedHeaders(t *testing.T) {
	wb := testutil.Workbook("data.xlsx", testutil.HeaderSheet("Data", true, "---", "%"))
	got := classifier.Classify(wb, "data.xlsx")
	if got.TemplateID != model.TemplateSimplified || got.Stage != model.StageContent {
		t.Fatalf("got %+v, want simplified via content", got)
	}
}

func TestClassify_EmptyWorkbook(t *testing.T) {
	wb := testutil.Workbook("empty.csv", testutil.Sheet{Name: "Sheet1"})
	got := classifier.Classify(wb, "empty.csv")
	if got.TemplateID != model.TemplateSimplified || got.Stage != model.StageColumnCount {
		t.Fatalf("got %+v, want simplified via column count", got)
	}
}

func TestClassify_NilWorkbook(t *testing.T) {
	got := classifier.Classify(nil, "standard.xlsx")
	if !got.IsUnknown() || got.Score != 0 || got.ConfidenceTier != model.ConfidenceNone {
		t.Fatalf("got %+v, want unknown", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	wb := testutil.Workbook("q.xlsx",
		testutil.HeaderSheet("P&L", true, "Operating Expenses", "Gross Margin", "Retained Earnings"))
	first := classifier.Classify(wb, "q.xlsx")
	for i := 0; i < 20; i++ {
		if got := classifier.Classify(wb, "q.xlsx"); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestClassify_RankingPolicy(t *testing.T) {
	reg := templates.NewRegistry(templates.NewEmbeddedSource(), nil)
	detailed, err := reg.LoadReferenceStructure(context.Background(), model.TemplateDetailed)
	if err != nil {
		t.Fatalf("LoadReferenceStructure failed: %v", err)
	}

	// standard passes the threshold first (4/6), detailed scores higher (5/6)
	first := classifier.New().Classify(detailed, "upload.xlsx")
	if first.TemplateID != model.TemplateStandard {
		t.Fatalf("first match: got %s, want standard", first.TemplateID)
	}

	best := classifier.New(classifier.WithRanking(classifier.RankBestScore)).Classify(detailed, "upload.xlsx")
	if best.TemplateID != model.TemplateDetailed || best.Stage != model.StageContent {
		t.Fatalf("best score: got %+v, want detailed via content", best)
	}
}

func TestClassify_ReferenceStandard(t *testing.T) {
	reg := templates.NewRegistry(templates.NewEmbeddedSource(), nil)
	wb, err := reg.LoadReferenceStructure(context.Background(), model.TemplateStandard)
	if err != nil {
		t.Fatalf("LoadReferenceStructure failed: %v", err)
	}
	for _, r := range []classifier.Ranking{classifier.RankFirstMatch, classifier.RankBestScore} {
		got := classifier.New(classifier.WithRanking(r)).Classify(wb, "upload.xlsx")
		if got.TemplateID != model.TemplateStandard {
			t.Fatalf("%s: got %s, want standard", r, got.TemplateID)
		}
	}
}

func TestParseRanking(t *testing.T) {
	tests := []struct {
		in      string
		want    classifier.Ranking
		wantErr bool
	}{
		{"", classifier.RankFirstMatch, false},
		{"first_match", classifier.RankFirstMatch, false},
		{" BEST_SCORE ", classifier.RankBestScore, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		got, err := classifier.ParseRanking(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRanking(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseRanking(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
