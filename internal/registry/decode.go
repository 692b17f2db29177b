package registry

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
)

// optionsTag is the struct tag stage options are decoded from.
const optionsTag = "stage"

// NewStage builds one stage of a task from its definition.
func (r *Registry) NewStage(env Env, def *config.StageDefinition) (pipeline.Stage, error) {
	registered, ok := r.stages[def.Type]
	if !ok {
		return nil, fmt.Errorf("unknown stage type %q", def.Type)
	}

	opts, err := decodeOptions(registered, def.Options)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", def.Type, err)
	}

	stage, err := registered.New(env, opts)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", def.Type, err)
	}
	return stage, nil
}

func decodeOptions(registered *RegisteredStage, raw map[string]any) (any, error) {
	if registered.NewOptions == nil {
		if len(raw) > 0 {
			return nil, fmt.Errorf("stage takes no options")
		}
		return nil, nil
	}

	opts := registered.NewOptions()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          optionsTag,
		Result:           opts,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating options decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}
