// Package registration wires the built-in provider factories explicitly,
// avoiding init() side effects. cmd and tests call RegisterBuiltins before
// constructing registries.
package registration

import (
	"github.com/artboardhq/artboard/internal/provider/fal"
	"github.com/artboardhq/artboard/internal/provider/openai"
	"github.com/artboardhq/artboard/internal/provider/replicate"
	"github.com/artboardhq/artboard/internal/provider/sora"
	"github.com/artboardhq/artboard/internal/provider/veo"
	"github.com/artboardhq/artboard/internal/provider/xai"
)

// RegisterBuiltins registers every built-in provider factory. Safe to call
// more than once.
func RegisterBuiltins() {
	openai.RegisterProviderFactory()
	replicate.RegisterProviderFactory()
	fal.RegisterProviderFactory()
	xai.RegisterProviderFactory()
	veo.RegisterProviderFactory()
	sora.RegisterProviderFactory()
}
