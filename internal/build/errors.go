package build

import "errors"

// Sentinel errors classifying which stage a failed build stopped in. They
// are always wrapped with context at the call site.
var (
	ErrDiscovery = errors.New("doxidize: discovery error")
	ErrRender    = errors.New("doxidize: render error")
	ErrReconcile = errors.New("doxidize: reconcile error")
)
