package pipeline

import "context"

// Stage is one transform in a task's chain. It receives every asset the
// previous stage produced and returns the assets for the next one. Stages
// may drop, rename, merge or add assets.
type Stage interface {
	Name() string
	Transform(ctx context.Context, in []*Asset) ([]*Asset, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, in []*Asset) ([]*Asset, error)
}

// Name implements Stage.
func (s StageFunc) Name() string { return s.StageName }

// Transform implements Stage.
func (s StageFunc) Transform(ctx context.Context, in []*Asset) ([]*Asset, error) {
	return s.Fn(ctx, in)
}

// EachAsset builds a Stage that applies fn to every asset independently and
// concatenates the results in input order. fn may return zero, one or
// several assets. The first error stops the stage.
func EachAsset(name string, fn func(ctx context.Context, a *Asset) ([]*Asset, error)) Stage {
	return StageFunc{
		StageName: name,
		Fn: func(ctx context.Context, in []*Asset) ([]*Asset, error) {
			out := make([]*Asset, 0, len(in))
			for _, a := range in {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				produced, err := fn(ctx, a)
				if err != nil {
					return nil, err
				}
				out = append(out, produced...)
			}
			return out, nil
		},
	}
}
