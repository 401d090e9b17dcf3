package predictor

import (
	"errors"
	"testing"

	"github.com/frontera-freight/frontera/internal/common"
)

func TestExtractLastJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"recommendedPrice": 120}`,
			want:  `{"recommendedPrice": 120}`,
		},
		{
			name: "diagnostics before result",
			input: "loading model weights...\n" +
				"WARNING: feature drift detected\n" +
				`{"recommendedPrice": 120, "confidence": 0.8}`,
			want: `{"recommendedPrice": 120, "confidence": 0.8}`,
		},
		{
			name:  "multiple objects picks last",
			input: `{"step": "features"} then {"recommendedPrice": 95}`,
			want:  `{"recommendedPrice": 95}`,
		},
		{
			name:  "braces inside strings",
			input: `{"note": "shape {x}", "recommendedPrice": 95}`,
			want:  `{"note": "shape {x}", "recommendedPrice": 95}`,
		},
		{
			name:  "nested object kept whole",
			input: `{"meta": {"version": "2"}, "recommendedPrice": 95}`,
			want:  `{"meta": {"version": "2"}, "recommendedPrice": 95}`,
		},
		{
			name:  "trailing incomplete object falls back to earlier one",
			input: `{"recommendedPrice": 95} {"partial":`,
			want:  `{"recommendedPrice": 95}`,
		},
		{
			name:  "quote characters in plain log text",
			input: "can't load \"cache\"\n" + `{"recommendedPrice": 95}`,
			want:  `{"recommendedPrice": 95}`,
		},
		{
			name:    "no object",
			input:   "model produced nothing useful",
			wantErr: true,
		},
		{
			name:    "only invalid json",
			input:   `{broken: yes}`,
			wantErr: true,
		},
		{
			name:    "empty output",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractLastJSONObject([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				if !errors.Is(err, common.ErrMalformedResult) {
					t.Errorf("error = %v, want ErrMalformedResult", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
