package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/assetgrid/internal/config"
)

func translatePaths(block *pathsBlock) (map[string][]string, hcl.Diagnostics) {
	attrs, diags := block.Body.JustAttributes()
	paths := make(map[string][]string, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		values, d := stringList(val, attr.Expr.Range().Ptr(), "path role")
		diags = append(diags, d...)
		if !d.HasErrors() {
			paths[name] = values
		}
	}
	return paths, diags
}

func translateTask(block *taskBlock, evalCtx *hcl.EvalContext) (*config.TaskDefinition, hcl.Diagnostics) {
	src, diags := pathRoles(block.Src)
	dest, d := pathRole(block.Dest)
	diags = append(diags, d...)

	task := &config.TaskDefinition{
		Name: block.Name,
		Src:  src,
		Dest: dest,
	}
	if block.Incremental != nil {
		task.Incremental = *block.Incremental
	}

	for _, s := range block.Stages {
		options, d := bodyOptions(s.Body, evalCtx)
		diags = append(diags, d...)
		task.Stages = append(task.Stages, &config.StageDefinition{Type: s.Type, Options: options})
	}
	return task, diags
}

func translateServer(block *serverBlock) (*config.ServerDefinition, hcl.Diagnostics) {
	root, diags := pathRole(block.Root)
	server := &config.ServerDefinition{
		Root:           root,
		Host:           "localhost",
		Port:           3000,
		ReloadDebounce: time.Second,
		InjectChanges:  true,
	}
	if block.Host != nil {
		server.Host = *block.Host
	}
	if block.Port != nil {
		server.Port = *block.Port
	}
	if block.InjectChanges != nil {
		server.InjectChanges = *block.InjectChanges
	}
	if block.ReloadDebounce != nil {
		d, err := time.ParseDuration(*block.ReloadDebounce)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid reload_debounce",
				Detail:   fmt.Sprintf("%q is not a duration: %v.", *block.ReloadDebounce, err),
			})
		} else {
			server.ReloadDebounce = d
		}
	}
	return server, diags
}

func translateNotify(block *notifyBlock) *config.NotifyDefinition {
	notify := config.DefaultNotify()
	if block == nil {
		return notify
	}
	if block.Title != nil {
		notify.Title = *block.Title
	}
	if block.Subtitle != nil {
		notify.Subtitle = *block.Subtitle
	}
	if block.Desktop != nil {
		notify.Desktop = *block.Desktop
	}
	if block.Console != nil {
		notify.Console = *block.Console
	}
	return notify
}

func translatePublish(block *publishBlock) (*config.PublishDefinition, hcl.Diagnostics) {
	root, diags := pathRole(block.Root)
	publish := &config.PublishDefinition{
		Root:     root,
		Endpoint: block.Endpoint,
		Bucket:   block.Bucket,
		UseSSL:   true,
	}
	if block.Prefix != nil {
		publish.Prefix = *block.Prefix
	}
	if block.Region != nil {
		publish.Region = *block.Region
	}
	if block.UseSSL != nil {
		publish.UseSSL = *block.UseSSL
	}
	return publish, diags
}
