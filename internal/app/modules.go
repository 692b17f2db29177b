package app

import (
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/modules/concat"
	"github.com/specialistvlad/assetgrid/modules/env"
	"github.com/specialistvlad/assetgrid/modules/esbuild"
	"github.com/specialistvlad/assetgrid/modules/imagemin"
	"github.com/specialistvlad/assetgrid/modules/minify"
	"github.com/specialistvlad/assetgrid/modules/print"
	"github.com/specialistvlad/assetgrid/modules/rename"
	"github.com/specialistvlad/assetgrid/modules/sass"
	"github.com/specialistvlad/assetgrid/modules/twig"
)

// coreModules is the definitive list of all stage modules that are compiled
// into the assetgrid binary.
var coreModules = []registry.Module{
	&sass.Module{},
	&esbuild.Module{},
	&minify.Module{},
	&concat.Module{},
	&imagemin.Module{},
	&twig.Module{},
	&rename.Module{},
	&env.Module{},
	&print.Module{},
}
