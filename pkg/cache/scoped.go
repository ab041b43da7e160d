package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments (or
// environments) can share one backend without key collisions.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "logistica:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ResultKey returns the prefixed graph key.
func (k *ScopedKeyer) ResultKey(resultHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.ResultKey(resultHash, opts)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
