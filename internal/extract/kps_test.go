package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKPSScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  int
		found bool
	}{
		{name: "plain", text: "KPS: 90", want: 90, found: true},
		{name: "combined with ecog", text: "KPS/ECOG: 90/0", want: 90, found: true},
		{name: "combined no colon", text: "KPS/ECOG 100/1", want: 100, found: true},
		{name: "score equals", text: "KPS score = 80", want: 80, found: true},
		{name: "lowercase", text: "kps 70 today", want: 70, found: true},
		{name: "embedded in sentence", text: "Patient doing well, KPS-60, ambulating.", want: 60, found: true},
		{name: "absent", text: "Patient ambulating without assistance.", found: false},
		{name: "empty", text: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KPSScore(tt.text)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
