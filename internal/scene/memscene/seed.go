package memscene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// Seed is the YAML description of an initial scene and its resource
// library. Vectors are written as "x y z" strings.
type Seed struct {
	Viewpoint string         `yaml:"viewpoint"`
	Entities  []SeedEntity   `yaml:"entities"`
	Resources []SeedResource `yaml:"resources"`
}

// SeedEntity places one node. Child positions are local to the parent.
type SeedEntity struct {
	Name      string       `yaml:"name"`
	Primitive string       `yaml:"primitive"`
	Position  string       `yaml:"position"`
	Rotation  string       `yaml:"rotation"`
	Scale     string       `yaml:"scale"`
	Color     string       `yaml:"color"`
	Body      bool         `yaml:"body"`
	Tag       string       `yaml:"tag"`
	Layer     int          `yaml:"layer"`
	Labels    []string     `yaml:"labels"`
	Inactive  bool         `yaml:"inactive"`
	Children  []SeedEntity `yaml:"children"`
}

// SeedResource registers one template.
type SeedResource struct {
	Name      string         `yaml:"name"`
	Primitive string         `yaml:"primitive"`
	Size      string         `yaml:"size"`
	Body      bool           `yaml:"body"`
	Tag       string         `yaml:"tag"`
	Children  []SeedResource `yaml:"children"`
}

// LoadSeedFile reads and applies a seed file.
func LoadSeedFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return LoadSeed(data)
}

// LoadSeed parses YAML seed data into a new scene.
func LoadSeed(data []byte) (*Scene, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return seed.Build(), nil
}

// Build materialises the seed.
func (seed Seed) Build() *Scene {
	s := New(seed.Viewpoint)
	for _, e := range seed.Entities {
		n := s.Add(e.Name)
		applySeed(s, n, e)
	}
	for _, r := range seed.Resources {
		s.Register(r.template())
	}
	return s
}

func applySeed(s *Scene, n *Node, e SeedEntity) {
	if e.Primitive != "" {
		n.extents = primitiveExtents(scene.Primitive(e.Primitive))
	}
	n.localPos = scene.ParseVec3(e.Position)
	if e.Rotation != "" {
		n.localRot = scene.Euler(scene.ParseVec3(e.Rotation))
	}
	if v, ok := scene.ParseVec3Strict(e.Scale); ok {
		n.localScale = v
	}
	if v, ok := scene.ParseVec3Strict(e.Color); ok {
		n.color = scene.ColorFromVec3(v)
	}
	n.hasBody = e.Body
	n.tag = e.Tag
	n.layer = e.Layer
	n.labels = append([]string(nil), e.Labels...)
	n.active = !e.Inactive
	for _, ce := range e.Children {
		child := s.AddChild(n, ce.Name, scene.Zero)
		applySeed(s, child, ce)
	}
}

func (r SeedResource) template() Template {
	t := Template{
		Name:      r.Name,
		Primitive: scene.Primitive(r.Primitive),
		Size:      scene.ParseVec3(r.Size),
		Body:      r.Body,
		Tag:       r.Tag,
	}
	for _, c := range r.Children {
		t.Children = append(t.Children, c.template())
	}
	return t
}
