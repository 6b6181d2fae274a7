package query

import (
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "drops stopwords",
			query: "my laptop is slow and the fan is loud",
			want:  []string{"laptop", "slow", "fan", "loud"},
		},
		{
			name:  "lowercases",
			query: "VPN Keeps Disconnecting",
			want:  []string{"vpn", "keeps", "disconnecting"},
		},
		{
			name:  "only stopwords",
			query: "what do i do",
			want:  []string{},
		},
		{
			name:  "empty input",
			query: "",
			want:  []string{},
		},
		{
			name:  "whitespace only",
			query: "   \t  ",
			want:  []string{},
		},
		{
			name:  "preserves order and duplicates",
			query: "printer printer jam",
			want:  []string{"printer", "printer", "jam"},
		},
		{
			name:  "stopword match is exact not substring",
			query: "android antivirus",
			want:  []string{"android", "antivirus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
