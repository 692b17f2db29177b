// Package yamlcfg implements config.Loader for YAML configuration files.
// Path roles are referenced by name:
//
//	paths:
//	  src_styles: src/stylesheets/**/*.scss
//	  dist_styles: dist/stylesheets/
//	tasks:
//	  - name: styles
//	    src: [src_styles]
//	    dest: dist_styles
//	    stages:
//	      - type: sass
//	        output_style: compressed
//	groups:
//	  - name: build
//	    steps: [styles]
package yamlcfg
