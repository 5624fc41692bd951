// Package content embeds the default campaign.
package content

import (
	"embed"

	"go.uber.org/zap"

	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/loader"
)

//go:embed *.lua dialogue.yaml
var FS embed.FS

// Load compiles the embedded campaign.
func Load(log *zap.Logger) (*state.Defs, error) {
	return loader.LoadFS(FS, log)
}
