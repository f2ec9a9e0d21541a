/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package catalog defines the fixed set of Spark image pipelines this tool
// manages: each target names an incomplete builder image, the completed image
// it produces, and the configuration object that consumes it. The catalog is
// immutable configuration, recomputed on every run.
package catalog

import (
	"fmt"
	"slices"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Name identifies one managed image pipeline. Membership is always tested by
// exact match, never by substring (openshift-spark vs openshift-spark-py36).
type Name string

// The managed pipelines. RadanalyticsRSpark is optional and only enabled via
// the r-spark feature.
const (
	RadanalyticsPySpark     Name = "radanalytics-pyspark"
	RadanalyticsPySparkPy36 Name = "radanalytics-pyspark-py36"
	RadanalyticsJavaSpark   Name = "radanalytics-java-spark"
	RadanalyticsScalaSpark  Name = "radanalytics-scala-spark"
	OpenShiftSpark          Name = "openshift-spark"
	OpenShiftSparkPy36      Name = "openshift-spark-py36"
	RadanalyticsRSpark      Name = "radanalytics-r-spark"
)

// FeatureRSpark is the feature flag enabling the optional R target.
const FeatureRSpark = "r-spark"

// ConsumerKind distinguishes the two shapes of configuration object that
// reference a target's image stream.
type ConsumerKind string

// Consumer object kinds.
const (
	ConsumerTemplate  ConsumerKind = "template"
	ConsumerConfigMap ConsumerKind = "configmap"
)

// Default tags selected by `use -d` per consumer family.
const (
	defaultTemplateTag  = "stable"
	defaultConfigMapTag = "2.3-latest"
)

// Target describes one image pipeline.
type Target struct {
	// Name is the pipeline identifier; build configurations, image streams
	// and ownership labels all carry it.
	Name Name

	// BuilderImageRef is the fully qualified incomplete builder image.
	BuilderImageRef string

	// CompleteImageRef is the fully qualified finished image, used when a
	// stream has to be rebuilt from scratch.
	CompleteImageRef string

	// ConfigObject names the template or config map consuming this target.
	ConfigObject string

	// ConfigKind is the consumer object shape.
	ConfigKind ConsumerKind
}

// DefaultUseTag returns the tag `use -d` selects for this target's family.
func (t Target) DefaultUseTag() string {
	if t.ConfigKind == ConsumerConfigMap {
		return defaultConfigMapTag
	}
	return defaultTemplateTag
}

// ConfigMapImageKey is the well-known config map key holding the Spark image
// reference for config-map consumers.
const ConfigMapImageKey = "sparkimage"

// Options configures catalog construction.
type Options struct {
	// RegistryPrefix is the registry/namespace the catalog image names live
	// under, e.g. "docker.io/radanalyticsio".
	RegistryPrefix string

	// Features is the list of enabled feature flags.
	Features []string
}

// Catalog is the static mapping from target names to targets.
type Catalog struct {
	targets []Target
	index   map[Name]Target
}

// New builds the catalog for the given options.
func New(opts Options) Catalog {
	prefix := opts.RegistryPrefix
	if prefix == "" {
		prefix = "docker.io/radanalyticsio"
	}

	img := func(name string) string { return fmt.Sprintf("%s/%s", prefix, name) }

	targets := []Target{
		{
			Name:             RadanalyticsPySpark,
			BuilderImageRef:  img("radanalytics-pyspark-inc:latest"),
			CompleteImageRef: img("radanalytics-pyspark:stable"),
			ConfigObject:     "oshinko-python-spark-build-dc",
			ConfigKind:       ConsumerTemplate,
		},
		{
			Name:             RadanalyticsPySparkPy36,
			BuilderImageRef:  img("radanalytics-pyspark-py36-inc:latest"),
			CompleteImageRef: img("radanalytics-pyspark-py36:stable"),
			ConfigObject:     "oshinko-python36-spark-build-dc",
			ConfigKind:       ConsumerTemplate,
		},
		{
			Name:             RadanalyticsJavaSpark,
			BuilderImageRef:  img("radanalytics-java-spark-inc:latest"),
			CompleteImageRef: img("radanalytics-java-spark:stable"),
			ConfigObject:     "oshinko-java-spark-build-dc",
			ConfigKind:       ConsumerTemplate,
		},
		{
			Name:             RadanalyticsScalaSpark,
			BuilderImageRef:  img("radanalytics-scala-spark-inc:latest"),
			CompleteImageRef: img("radanalytics-scala-spark:stable"),
			ConfigObject:     "oshinko-scala-spark-build-dc",
			ConfigKind:       ConsumerTemplate,
		},
		{
			Name:             OpenShiftSpark,
			BuilderImageRef:  img("openshift-spark-inc:latest"),
			CompleteImageRef: img("openshift-spark:2.3-latest"),
			ConfigObject:     "oshinko-cluster-config",
			ConfigKind:       ConsumerConfigMap,
		},
		{
			Name:             OpenShiftSparkPy36,
			BuilderImageRef:  img("openshift-spark-py36-inc:latest"),
			CompleteImageRef: img("openshift-spark-py36:2.3-latest"),
			ConfigObject:     "oshinko-cluster-config-py36",
			ConfigKind:       ConsumerConfigMap,
		},
	}

	if slices.Contains(opts.Features, FeatureRSpark) {
		targets = append(targets, Target{
			Name:             RadanalyticsRSpark,
			BuilderImageRef:  img("radanalytics-r-spark-inc:latest"),
			CompleteImageRef: img("radanalytics-r-spark:stable"),
			ConfigObject:     "oshinko-r-spark-build-dc",
			ConfigKind:       ConsumerTemplate,
		})
	}

	index := make(map[Name]Target, len(targets))
	for _, t := range targets {
		index[t.Name] = t
	}

	return Catalog{targets: targets, index: index}
}

// Lookup returns the target for an exact name match.
func (c Catalog) Lookup(name string) (Target, bool) {
	t, ok := c.index[Name(name)]
	return t, ok
}

// All returns every target in catalog order.
func (c Catalog) All() []Target {
	return slices.Clone(c.targets)
}

// Names returns every target name in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.targets))
	for _, t := range c.targets {
		names = append(names, string(t.Name))
	}
	return names
}

// Suggest returns the catalog name closest to the given unknown name, or ""
// when nothing is remotely similar.
func (c Catalog) Suggest(name string) string {
	ranks := fuzzy.RankFindNormalizedFold(name, c.Names())
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
