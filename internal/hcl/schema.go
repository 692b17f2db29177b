package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all top-level blocks of a configuration file.
type fileRoot struct {
	Paths   *pathsBlock   `hcl:"paths,block"`
	Tasks   []*taskBlock  `hcl:"task,block"`
	Groups  []*groupBlock `hcl:"group,block"`
	Watches []*watchBlock `hcl:"watch,block"`
	Server  *serverBlock  `hcl:"server,block"`
	Notify  *notifyBlock  `hcl:"notify,block"`
	Publish *publishBlock `hcl:"publish,block"`
}

type pathsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type taskBlock struct {
	Name        string         `hcl:"name,label"`
	Src         hcl.Expression `hcl:"src"`
	Dest        hcl.Expression `hcl:"dest"`
	Incremental *bool          `hcl:"incremental,optional"`
	Stages      []*stageBlock  `hcl:"stage,block"`
}

type stageBlock struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

type groupBlock struct {
	Name  string   `hcl:"name,label"`
	Steps []string `hcl:"steps"`
}

type watchBlock struct {
	Paths hcl.Expression `hcl:"paths"`
	Run   []string       `hcl:"run"`
}

type serverBlock struct {
	Root           hcl.Expression `hcl:"root"`
	Host           *string        `hcl:"host,optional"`
	Port           *int           `hcl:"port,optional"`
	ReloadDebounce *string        `hcl:"reload_debounce,optional"`
	InjectChanges  *bool          `hcl:"inject_changes,optional"`
}

type notifyBlock struct {
	Title    *string `hcl:"title,optional"`
	Subtitle *string `hcl:"subtitle,optional"`
	Desktop  *bool   `hcl:"desktop,optional"`
	Console  *bool   `hcl:"console,optional"`
}

type publishBlock struct {
	Root     hcl.Expression `hcl:"root"`
	Endpoint string         `hcl:"endpoint"`
	Bucket   string         `hcl:"bucket"`
	Prefix   *string        `hcl:"prefix,optional"`
	Region   *string        `hcl:"region,optional"`
	UseSSL   *bool          `hcl:"use_ssl,optional"`
}
