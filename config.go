package boxtree

// TreeOption configures a Tree at construction time, in the style of the
// teacher's app_builder.go functional-option modules.
type TreeOption func(*treeConfig)

type treeConfig struct {
	logger          Logger
	autoSimplify    bool
	initialCapacity int
}

func defaultTreeConfig() treeConfig {
	return treeConfig{
		logger:          NewNopLogger(),
		autoSimplify:    true,
		initialCapacity: 16,
	}
}

// WithLogger installs a custom Logger; the default is a no-op logger.
func WithLogger(logger Logger) TreeOption {
	return func(c *treeConfig) { c.logger = logger }
}

// WithAutoSimplify controls whether update operations run simplify() after
// every mutation (the default). Bulk importers disable this and call
// Simplify() once at the end (spec.md §6, Importer contract).
func WithAutoSimplify(enabled bool) TreeOption {
	return func(c *treeConfig) { c.autoSimplify = enabled }
}

// WithInitialCapacity pre-sizes the node pool's backing storage.
func WithInitialCapacity(n int) TreeOption {
	return func(c *treeConfig) {
		if n > 0 {
			c.initialCapacity = n
		}
	}
}
