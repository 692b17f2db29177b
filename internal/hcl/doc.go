// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file parsing, resolving `paths.<role>`
// references and translating blocks into the format-agnostic config.Model.
//
// A configuration file looks like:
//
//	paths {
//	  src_styles  = "src/stylesheets/**/*.scss"
//	  dist_styles = "dist/stylesheets/"
//	}
//
//	task "styles" {
//	  src  = paths.src_styles
//	  dest = paths.dist_styles
//	  stage "sass" { output_style = "compressed" }
//	}
//
//	group "build" { steps = ["styles"] }
package hcl
