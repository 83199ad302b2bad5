package scene

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// Prefetcher loads model assets from an asset root and caches the parsed
// documents. Scenes built from it clone node state, so the cache is never
// mutated after load.
type Prefetcher struct {
	root  string
	mu    sync.Mutex
	cache map[string]*gltf.Document
	open  func(path string) (*gltf.Document, error)
}

// NewPrefetcher creates a prefetcher rooted at dir.
func NewPrefetcher(dir string) *Prefetcher {
	return &Prefetcher{
		root:  dir,
		cache: map[string]*gltf.Document{},
		open:  gltf.Open,
	}
}

// Cached reports whether an asset path has already been loaded.
func (p *Prefetcher) Cached(asset string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.cache[p.resolve(asset)]
	return ok
}

// Document returns the parsed asset, loading it on first use.
func (p *Prefetcher) Document(ctx context.Context, asset string) (*gltf.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := p.resolve(asset)

	p.mu.Lock()
	defer p.mu.Unlock()
	if doc, ok := p.cache[path]; ok {
		return doc, nil
	}
	doc, err := p.open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load asset %q", asset)
	}
	p.cache[path] = doc
	return doc, nil
}

// PrefetchAssets loads every asset the document names. All assets are
// attempted; failures are reported together.
func (p *Prefetcher) PrefetchAssets(ctx context.Context, doc configdoc.Document) error {
	var failed []string
	for _, group := range assetGroups(doc) {
		if _, err := p.Document(ctx, doc.Assets[group]); err != nil {
			failed = append(failed, err.Error())
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("prefetch %s: %d of %d assets failed: %s",
			doc.Name, len(failed), len(doc.Assets), strings.Join(failed, "; "))
	}
	log.Printf("Prefetched %d assets for %s", len(doc.Assets), doc.Name)
	return nil
}

// SceneFor builds a fresh scene layering every asset of the document.
func (p *Prefetcher) SceneFor(ctx context.Context, doc configdoc.Document) (*Scene, error) {
	if len(doc.Assets) == 0 {
		return nil, errors.Errorf("model %q has no assets", doc.Name)
	}
	groups := make(map[string]*gltf.Document, len(doc.Assets))
	for _, group := range assetGroups(doc) {
		d, err := p.Document(ctx, doc.Assets[group])
		if err != nil {
			return nil, err
		}
		groups[group] = d
	}
	return New(groups), nil
}

func (p *Prefetcher) resolve(asset string) string {
	if filepath.IsAbs(asset) || p.root == "" {
		return filepath.Clean(asset)
	}
	return filepath.Join(p.root, asset)
}

func assetGroups(doc configdoc.Document) []string {
	out := make([]string, 0, len(doc.Assets))
	for g := range doc.Assets {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
