package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCasingRule(t *testing.T) {
	tests := []struct {
		in      string
		want    CasingRule
		wantErr bool
	}{
		{in: "", want: CasingTitle},
		{in: "title", want: CasingTitle},
		{in: " Sentence ", want: CasingSentence},
		{in: "upper", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCasingRule(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarketCaser(t *testing.T) {
	tests := []struct {
		in       string
		title    string
		sentence string
	}{
		{in: "  ClOud compUting  ", title: "Cloud Computing", sentence: "Cloud computing"},
		{in: "software", title: "Software", sentence: "Software"},
		{in: "e-commerce", title: "E-commerce", sentence: "E-commerce"},
		{in: "3d  printing", title: "3d Printing", sentence: "3d printing"},
		{in: "İSTANBUL tech", title: "İstanbul Tech", sentence: "İstanbul tech"},
		{in: "ǆungla", title: "ǅungla", sentence: "ǅungla"},
		{in: "café bars", title: "Café Bars", sentence: "Café bars"},
		{in: "   ", title: "", sentence: ""},
	}

	title := newMarketCaser(CasingTitle)
	sentence := newMarketCaser(CasingSentence)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.title, title.Apply(tt.in))
			assert.Equal(t, tt.sentence, sentence.Apply(tt.in))
		})
	}
}

func TestMarketCaser_Idempotent(t *testing.T) {
	for _, rule := range []CasingRule{CasingTitle, CasingSentence} {
		c := newMarketCaser(rule)
		for _, in := range []string{"cLoud COMPUTING", "ǆungla", "e-commerce"} {
			once := c.Apply(in)
			assert.Equal(t, once, c.Apply(once), "%s %q", rule, in)
		}
	}
}
