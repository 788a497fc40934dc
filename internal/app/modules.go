package app

import (
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/modules/blend"
	"github.com/specialistvlad/texgridgo/modules/color"
	"github.com/specialistvlad/texgridgo/modules/crop"
	"github.com/specialistvlad/texgridgo/modules/imageread"
	"github.com/specialistvlad/texgridgo/modules/imagewrite"
	"github.com/specialistvlad/texgridgo/modules/pathtracer"
	"github.com/specialistvlad/texgridgo/modules/reactiondiffusion"
	"github.com/specialistvlad/texgridgo/modules/sceneloader"
	"github.com/specialistvlad/texgridgo/modules/thumbnail"
	"github.com/specialistvlad/texgridgo/modules/tile"
)

// coreModules is the definitive list of all modules that are compiled into
// the texgridgo binary.
var coreModules = []registry.Module{
	&crop.Module{},
	&tile.Module{},
	&blend.Module{},
	&color.Module{},
	&imageread.Module{},
	&imagewrite.Module{},
	&thumbnail.Module{},
	&sceneloader.Module{},
	&pathtracer.Module{},
	&reactiondiffusion.Module{},
}

// CoreModules returns a copy of the compiled in modules.
func CoreModules() []registry.Module {
	return append([]registry.Module(nil), coreModules...)
}
