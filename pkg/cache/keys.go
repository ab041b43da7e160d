package cache

// GraphKeyOpts are the inputs besides the raw result that change the
// assembled graph.
type GraphKeyOpts struct {
	Schema string `json:"schema"`
}

// ArtifactKeyOpts are the rendering options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Vertical bool    `json:"vertical,omitempty"`
	Legend   bool    `json:"legend,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey keys the decision graph assembled from a raw result.
	ResultKey(resultHash string, opts GraphKeyOpts) string
	// ArtifactKey keys a rendered artifact of a graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey returns "graph:<hash>".
func (DefaultKeyer) ResultKey(resultHash string, opts GraphKeyOpts) string {
	return hashKey("graph", resultHash, opts)
}

// ArtifactKey returns "artifact:<format>:<hash>".
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, graphHash, opts)
}
