package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys. Each stage of the pipeline keys its output by
// the hash of its input plus the options that change the result.
type Keyer interface {
	CompileKey(textHash string, opts CompileKeyOpts) string
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// CompileKeyOpts are the inputs of a compile besides the query text.
type CompileKeyOpts struct {
	Prefixes map[string]string `json:"prefixes,omitempty"`
}

// LayoutKeyOpts mirror the force layout settings.
type LayoutKeyOpts struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	Ticks          int     `json:"ticks"`
	CollideRadius  float64 `json:"collide_radius"`
	ChargeStrength float64 `json:"charge_strength"`
	LinkStrength   float64 `json:"link_strength"`
	LinkDistance   float64 `json:"link_distance"`
	FontSize       float64 `json:"font_size"`
}

// ArtifactKeyOpts are the render settings of one output file.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Renderer  string  `json:"renderer"`
	Detailed  bool    `json:"detailed,omitempty"`
	Selection string  `json:"selection,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces keys of the form "kind:sha256(inputs)".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// CompileKey keys a compiled query graph.
func (DefaultKeyer) CompileKey(textHash string, opts CompileKeyOpts) string {
	return hashKey("compile", textHash, opts)
}

// LayoutKey keys a laid-out query graph.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey keys rendered output.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// hashKey names the output of one pipeline stage. stage is "compile",
// "layout" or "artifact"; input is the Hash of the stage's input document
// (query text, compiled graph or laid-out graph) and opts the settings that
// change the output. Option maps such as the compile prefixes marshal with
// sorted keys, so the same prefixes in any order give the same key.
func hashKey(stage, input string, opts any) string {
	data, _ := json.Marshal(opts)
	sum := sha256.New()
	sum.Write([]byte(input))
	sum.Write([]byte{0})
	sum.Write(data)
	return stage + ":" + hex.EncodeToString(sum.Sum(nil))
}

// Hash fingerprints a stage input: the query text before compiling, or the
// graph document handed to layout and rendering. It is the hex SHA-256 of
// data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
