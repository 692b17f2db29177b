package yamlcfg

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type document struct {
	Paths   map[string]stringList `yaml:"paths"`
	Tasks   []taskDoc             `yaml:"tasks"`
	Groups  []groupDoc            `yaml:"groups"`
	Watch   []watchDoc            `yaml:"watch"`
	Server  *serverDoc            `yaml:"server"`
	Notify  *notifyDoc            `yaml:"notify"`
	Publish *publishDoc           `yaml:"publish"`
}

type taskDoc struct {
	Name        string           `yaml:"name"`
	Src         stringList       `yaml:"src"`
	Dest        string           `yaml:"dest"`
	Incremental bool             `yaml:"incremental"`
	Stages      []map[string]any `yaml:"stages"`
}

type groupDoc struct {
	Name  string   `yaml:"name"`
	Steps []string `yaml:"steps"`
}

type watchDoc struct {
	Paths stringList `yaml:"paths"`
	Run   stringList `yaml:"run"`
}

type serverDoc struct {
	Root           string  `yaml:"root"`
	Host           *string `yaml:"host"`
	Port           *int    `yaml:"port"`
	ReloadDebounce *string `yaml:"reload_debounce"`
	InjectChanges  *bool   `yaml:"inject_changes"`
}

type notifyDoc struct {
	Title    *string `yaml:"title"`
	Subtitle *string `yaml:"subtitle"`
	Desktop  *bool   `yaml:"desktop"`
	Console  *bool   `yaml:"console"`
}

type publishDoc struct {
	Root     string `yaml:"root"`
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	UseSSL   *bool  `yaml:"use_ssl"`
}

// stringList accepts either a scalar or a sequence of scalars.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		*s = values
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}
