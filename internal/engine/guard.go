package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"guide-a11y/internal/analyzer"
)

var ErrEngineFailure = errors.New("rule engine failure")

// Guard turns anything an engine does wrong, a panic included, into ErrEngineFailure.
type Guard struct {
	Engine analyzer.Engine
}

func (g Guard) Run(ctx context.Context, root *goquery.Selection, opts analyzer.RunOptions) (res analyzer.EngineResult, err error) {
	if g.Engine == nil {
		return analyzer.EngineResult{}, fmt.Errorf("%w: no engine configured", ErrEngineFailure)
	}

	defer func() {
		if r := recover(); r != nil {
			res = analyzer.EngineResult{}
			err = fmt.Errorf("%w: panic: %v", ErrEngineFailure, r)
		}
	}()

	res, err = g.Engine.Run(ctx, root, opts)
	if err != nil {
		return analyzer.EngineResult{}, fmt.Errorf("%w: %w", ErrEngineFailure, err)
	}

	return res, nil
}
