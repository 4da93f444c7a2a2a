package report

import (
	"errors"
	"testing"
)

func TestParseCampaignReportMissingTopLevelKey(t *testing.T) {
	t.Parallel()

	_, err := ParseCampaignReport([]byte(`{"items": []}`))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("ParseCampaignReport() error = %v, want ErrMalformedInput", err)
	}
}

func TestParseCampaignReportDetailsOptional(t *testing.T) {
	t.Parallel()

	doc, err := ParseCampaignReport([]byte(`{"campaigns":[{
		"name":"n","objective":"o","target_audience":"t",
		"strategy":{"score":"9","topics":{"topics":[]}}
	}]}`))
	if err != nil {
		t.Fatalf("ParseCampaignReport() error = %v", err)
	}
	rows := CampaignRows(doc.Campaigns[0])
	if rows[3].Value != "" {
		t.Fatalf("campaign details = %q, want empty", rows[3].Value)
	}
	if rows[5].Value != "" {
		t.Fatalf("trending topics = %q, want empty", rows[5].Value)
	}
}

func TestParseCampaignReportRequiresTopicName(t *testing.T) {
	t.Parallel()

	_, err := ParseCampaignReport([]byte(`{"campaigns":[{
		"name":"n","objective":"o","target_audience":"t",
		"strategy":{"score":"9","topics":{"topics":[{"name":"AI"},{"description":"x"}]}}
	}]}`))
	if !errors.Is(err, ErrInvalidCampaign) {
		t.Fatalf("ParseCampaignReport() error = %v, want ErrInvalidCampaign", err)
	}
}

func TestScoreUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string", body: `"8/10"`, want: "8/10"},
		{name: "integer", body: `9`, want: "9"},
		{name: "float", body: `7.25`, want: "7.25"},
		{name: "null", body: `null`, want: ""},
		{name: "object", body: `{"v":1}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var s Score
			err := s.UnmarshalJSON([]byte(tc.body))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if s.String() != tc.want {
				t.Fatalf("score = %q, want %q", s, tc.want)
			}
		})
	}
}
