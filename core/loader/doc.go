// Package loader provides the feature loading system.
//
// Each feature implements Feature (name, enabled switch, route registration);
// the Manager registers features and loads the enabled ones onto the Fiber app
// at startup.
package loader
