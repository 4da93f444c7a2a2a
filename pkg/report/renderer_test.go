package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const twoCampaigns = `{
  "campaigns": [
    {
      "name": "Green Future",
      "objective": "Grow awareness",
      "target_audience": "Urban millennials",
      "campaign_details": "Short-form video series",
      "strategy": {
        "score": "8.5",
        "topics": {"topics": [
          {"name": "AI", "description": "d", "relevance": "r"},
          {"name": "Sustainability", "description": "d", "relevance": "r"}
        ]}
      }
    },
    {
      "name": "Smart Home",
      "objective": "Drive trials",
      "target_audience": "Young families",
      "campaign_details": "Influencer unboxings",
      "strategy": {"score": 7, "topics": {"topics": [{"name": "IoT"}]}}
    }
  ]
}`

func newTestRenderer() *Renderer {
	fixed := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	return NewRenderer(Config{CoreFont: "Times"}, WithClock(func() time.Time { return fixed }))
}

func writeInput(t *testing.T, dir string, body string) string {
	t.Helper()
	path := filepath.Join(dir, "campaigns.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestRenderFilePageCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, twoCampaigns)
	output := filepath.Join(dir, "report.pdf")

	res, err := newTestRenderer().RenderFile(input, output)
	if err != nil {
		t.Fatalf("RenderFile() error = %v", err)
	}
	if res.Pages != 3 {
		t.Fatalf("RenderFile().Pages = %d, want 3", res.Pages)
	}
	if res.Campaigns != 2 {
		t.Fatalf("RenderFile().Campaigns = %d, want 2", res.Campaigns)
	}
	if res.Path != output {
		t.Fatalf("RenderFile().Path = %q, want %q", res.Path, output)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", raw[:min(len(raw), 16)])
	}
}

func TestRenderFileEmptyCampaignsHasTitlePageOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, `{"campaigns": []}`)

	res, err := newTestRenderer().RenderFile(input, filepath.Join(dir, "out.pdf"))
	if err != nil {
		t.Fatalf("RenderFile() error = %v", err)
	}
	if res.Pages != 1 {
		t.Fatalf("RenderFile().Pages = %d, want 1", res.Pages)
	}
}

func TestCampaignRowsOrderAndTopicJoin(t *testing.T) {
	t.Parallel()

	doc, err := ParseCampaignReport([]byte(twoCampaigns))
	if err != nil {
		t.Fatalf("ParseCampaignReport() error = %v", err)
	}

	rows := CampaignRows(doc.Campaigns[0])
	wantLabels := []string{
		"Campaign Name",
		"Objective",
		"Target Audience",
		"Campaign Details",
		"Strategy Score",
		"Trending Topics",
	}
	if len(rows) != len(wantLabels) {
		t.Fatalf("CampaignRows() returned %d rows, want %d", len(rows), len(wantLabels))
	}
	for i, want := range wantLabels {
		if rows[i].Label != want {
			t.Fatalf("rows[%d].Label = %q, want %q", i, rows[i].Label, want)
		}
	}
	if rows[0].Value != "Green Future" {
		t.Fatalf("campaign name = %q", rows[0].Value)
	}
	if rows[4].Value != "8.5" {
		t.Fatalf("strategy score = %q, want 8.5", rows[4].Value)
	}
	if rows[5].Value != "AI, Sustainability" {
		t.Fatalf("trending topics = %q, want %q", rows[5].Value, "AI, Sustainability")
	}

	second := CampaignRows(doc.Campaigns[1])
	if second[4].Value != "7" {
		t.Fatalf("numeric strategy score = %q, want 7", second[4].Value)
	}
}

func TestRenderFileMissingInputLeavesOutputUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	output := filepath.Join(dir, "campaign.pdf")
	if err := os.WriteFile(output, []byte("keep"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	_, err := newTestRenderer().RenderFile(filepath.Join(dir, "missing.json"), output)
	if !errors.Is(err, ErrInputRead) {
		t.Fatalf("RenderFile() error = %v, want ErrInputRead", err)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(raw) != "keep" {
		t.Fatalf("existing output was modified: %q", raw)
	}
}

func TestRenderFileMissingObjective(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := strings.Replace(twoCampaigns, `"objective": "Drive trials",`, "", 1)
	input := writeInput(t, dir, body)
	output := filepath.Join(dir, "campaign.pdf")

	_, err := newTestRenderer().RenderFile(input, output)
	if !errors.Is(err, ErrInvalidCampaign) {
		t.Fatalf("RenderFile() error = %v, want ErrInvalidCampaign", err)
	}
	if !strings.Contains(err.Error(), "campaigns[1].objective") {
		t.Fatalf("error does not name the field: %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatalf("output should not exist, stat error = %v", statErr)
	}
}

func TestRenderFileMalformedJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, `{"campaigns": [`)

	_, err := newTestRenderer().RenderFile(input, filepath.Join(dir, "out.pdf"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("RenderFile() error = %v, want ErrMalformedInput", err)
	}
}

func TestRenderFileMissingFonts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, twoCampaigns)
	output := filepath.Join(dir, "out.pdf")

	r := NewRenderer(Config{}, WithFontDir(t.TempDir()))
	_, err := r.RenderFile(input, output)
	if !errors.Is(err, ErrFontMissing) {
		t.Fatalf("RenderFile() error = %v, want ErrFontMissing", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatalf("output should not exist, stat error = %v", statErr)
	}
}

func TestRenderFileDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, twoCampaigns)
	t.Chdir(dir)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	want := filepath.Join(wd, DefaultOutputFile)

	res, err := newTestRenderer().RenderFile(input, "")
	if err != nil {
		t.Fatalf("RenderFile() error = %v", err)
	}
	if res.Path != want {
		t.Fatalf("RenderFile().Path = %q, want %q", res.Path, want)
	}
	if !strings.Contains(res.Message(), want) {
		t.Fatalf("Message() = %q, want it to contain %q", res.Message(), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("default output missing: %v", err)
	}
}

func TestRenderFileWrapsLongValuesOnOnePage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	details := strings.Repeat("omnichannel storytelling ", 60) + strings.Repeat("x", 300)
	body := strings.Replace(twoCampaigns, "Short-form video series", details, 1)
	input := writeInput(t, dir, body)

	res, err := newTestRenderer().RenderFile(input, filepath.Join(dir, "out.pdf"))
	if err != nil {
		t.Fatalf("RenderFile() error = %v", err)
	}
	if res.Pages != 3 {
		t.Fatalf("RenderFile().Pages = %d, want 3", res.Pages)
	}
}

func TestRenderFileSplitsRowsTallerThanAPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		repeat   int
		minPages int
		maxPages int
	}{
		{name: "two pages of details", repeat: 250, minPages: 4, maxPages: 4},
		{name: "several pages of details", repeat: 600, minPages: 5, maxPages: 8},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			details := strings.Repeat("omnichannel storytelling ", tc.repeat)
			body := strings.Replace(twoCampaigns, "Short-form video series", details, 1)
			input := writeInput(t, dir, body)

			res, err := newTestRenderer().RenderFile(input, filepath.Join(dir, "out.pdf"))
			if err != nil {
				t.Fatalf("RenderFile() error = %v", err)
			}
			if res.Pages < tc.minPages || res.Pages > tc.maxPages {
				t.Fatalf("RenderFile().Pages = %d, want between %d and %d", res.Pages, tc.minPages, tc.maxPages)
			}
		})
	}
}

func TestBuildRestoresAutoPageBreak(t *testing.T) {
	t.Parallel()

	body := strings.Replace(twoCampaigns, "Short-form video series", strings.Repeat("omnichannel storytelling ", 250), 1)
	doc, err := ParseCampaignReport([]byte(body))
	if err != nil {
		t.Fatalf("ParseCampaignReport() error = %v", err)
	}

	pdf, err := newTestRenderer().Build(doc)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	auto, margin := pdf.GetAutoPageBreak()
	if !auto || margin != bottomMargin {
		t.Fatalf("GetAutoPageBreak() = (%v, %v), want (true, %v)", auto, margin, bottomMargin)
	}
}
