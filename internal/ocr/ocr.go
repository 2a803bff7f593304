package ocr

import (
	"context"
	"fmt"
	"sync"
)

// Engine recognizes text on a single rasterized page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Lazy defers building an engine until its first use. The build runs at most
// once, even under concurrent first use; a build error is returned on every call.
func Lazy(name string, build func() (Engine, error)) Engine {
	return &lazyEngine{name: name, build: build}
}

type lazyEngine struct {
	name  string
	build func() (Engine, error)

	once sync.Once
	eng  Engine
	err  error
}

func (l *lazyEngine) Name() string { return l.name }

func (l *lazyEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	l.once.Do(func() {
		l.eng, l.err = l.build()
		if l.err == nil && l.eng == nil {
			l.err = fmt.Errorf("builder returned no engine")
		}
	})
	if l.err != nil {
		return "", fmt.Errorf("ocr: init %s: %w", l.name, l.err)
	}
	return l.eng.Recognize(ctx, imagePath)
}
