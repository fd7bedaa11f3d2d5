package plugin

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	trigger := regexp.MustCompile(`(?i)^/iq(?:@imagebot)?(?: (?P<query>.+))?$`)

	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantQuery string
	}{
		{name: "with query", text: "/iq red panda", wantOK: true, wantQuery: "red panda"},
		{name: "with bot name", text: "/IQ@imagebot cat", wantOK: true, wantQuery: "cat"},
		{name: "without query", text: "/iq", wantOK: true},
		{name: "other command", text: "/iq_reset", wantOK: false},
		{name: "plain text", text: "hello", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, named, ok := Match(trigger, tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Nil(t, matches)
				return
			}
			assert.Equal(t, tt.text, matches[0])
			assert.Equal(t, tt.wantQuery, named["query"])
		})
	}
}
