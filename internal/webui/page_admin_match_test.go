package webui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sideout/internal/scoring"
)

func TestFormatRules(t *testing.T) {
	r := scoring.Rules{BestOf: 5, SetTarget: 25, DecidingSetTarget: 15, WinBy: 2}
	assert.Equal(t, "best of 5, sets to 25, deciding set to 15, win by 2", formatRules(r))
}
