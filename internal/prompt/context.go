package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

const (
	// DefaultRadius bounds the scene block around the user position.
	DefaultRadius = 5.0
	// DefaultUserHeight replaces the viewpoint height when the user position
	// is reported.
	DefaultUserHeight = 0.8
)

// IDs mints stable identifiers for entities without a usable name.
type IDs interface {
	GetOrAssignID(e scene.Entity) uuid.UUID
}

// TaskLister reports the names of running animation tasks.
type TaskLister interface {
	ActiveTaskNames() []string
}

// Hand names a tracked hand and the joints reported for it.
type Hand struct {
	Side   string   `yaml:"side"`
	Root   string   `yaml:"root"`
	Joints []string `yaml:"joints"`
}

// ContextConfig carries the entity names the builder looks up.
type ContextConfig struct {
	AgentName       string
	UserName        string
	ViewpointName   string
	PlaceholderName string
	Hands           []Hand
	Radius          float64
	UserHeight      float64
}

// ContextBuilder renders the contextual data block of a System turn from
// the live scene.
type ContextBuilder struct {
	cfg       ContextConfig
	provider  scene.Provider
	resources scene.ResourceProvider
	ids       IDs
	tasks     TaskLister
	history   *History
}

// NewContextBuilder constructs a builder. Any collaborator may be nil; the
// blocks that depend on it are then rendered empty.
func NewContextBuilder(cfg ContextConfig, provider scene.Provider, resources scene.ResourceProvider, ids IDs, tasks TaskLister, history *History) *ContextBuilder {
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	if cfg.UserHeight == 0 {
		cfg.UserHeight = DefaultUserHeight
	}
	return &ContextBuilder{
		cfg:       cfg,
		provider:  provider,
		resources: resources,
		ids:       ids,
		tasks:     tasks,
		history:   history,
	}
}

type columns struct {
	position    bool
	orientation bool
	scale       bool
	size        bool
}

func columnsOf(f command.Flags) columns {
	return columns{position: f.Position, orientation: f.Orientation, scale: f.Scale, size: f.Size}
}

func (c columns) header(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	if c.position {
		b.WriteString(", position")
	}
	if c.orientation {
		b.WriteString(", orientation")
	}
	if c.scale {
		b.WriteString(", scale")
	}
	if c.size {
		b.WriteString(", size")
	}
	b.WriteString(".\n")
	return b.String()
}

// Build renders the blocks selected by flags.
func (b *ContextBuilder) Build(flags command.Flags) string {
	if b == nil {
		return ""
	}
	cols := columnsOf(flags)
	var out strings.Builder
	if flags.Robot {
		out.WriteString(cols.header("The following is the contextual data associated to you, i.e., the robot, including the object name"))
		out.WriteString(b.robotBlock(cols))
		out.WriteString("Robot is the parent object, while others are joints of the robot. \n")
	}
	if flags.Scene {
		out.WriteString(cols.header("The following is the contextual data associated to the scene, including the object name"))
		out.WriteString(b.sceneBlock(b.UserPosition(), cols))
	}
	if flags.Resource {
		out.WriteString("The following are all the prefabs resources that you can use and their sizes (width,height,length):\n")
		out.WriteString(b.ResourceList())
	}
	if flags.AnimationData && b.tasks != nil {
		if names := b.tasks.ActiveTaskNames(); len(names) > 0 {
			out.WriteString("The following are id of active animations in current scene.\n")
			out.WriteString(strings.Join(names, ",") + "\n")
		}
	}
	if flags.User {
		out.WriteString(cols.header("The following are contexual data associtated to the player, including the object name"))
		out.WriteString(b.userBlock(cols))
	} else {
		out.WriteString("The following is the position of the user:\n" + b.UserPosition().String() + "\n")
	}
	if prev := b.history.Previous(); len(prev) > 0 {
		out.WriteString("The following are the previous " + strconv.Itoa(len(prev)) + " messages from the user, use them to infer some contextual data:\n")
		out.WriteString(strings.Join(prev, "\n"))
	}
	return out.String()
}

// UserPosition is the viewpoint projected to the fixed user height.
func (b *ContextBuilder) UserPosition() scene.Vec3 {
	if b == nil || b.provider == nil {
		return scene.Zero
	}
	pos := b.provider.Viewpoint()
	pos.Y = b.cfg.UserHeight
	return pos
}

// AgentPosition is the agent's world position, or the origin when the agent
// is absent.
func (b *ContextBuilder) AgentPosition() scene.Vec3 {
	if b == nil {
		return scene.Zero
	}
	if agent := b.find(b.cfg.AgentName); agent != nil {
		return agent.Pose().Position
	}
	return scene.Zero
}

// ResourceList renders one "name (w,h,l)" line per available resource.
func (b *ContextBuilder) ResourceList() string {
	if b == nil || b.resources == nil {
		return "\n"
	}
	var lines []string
	for _, r := range b.resources.ListAvailable() {
		lines = append(lines, fmt.Sprintf("%s (%.3f,%.3f,%.3f)", r.Name, r.Size.X, r.Size.Y, r.Size.Z))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (b *ContextBuilder) robotBlock(cols columns) string {
	robot := b.find(b.cfg.AgentName)
	if robot == nil {
		return "Robot not found in the scene.\n"
	}
	var out strings.Builder
	out.WriteString(worldInfo(robot, cols))
	for _, child := range robot.Children() {
		if scene.IsAlive(child) {
			out.WriteString(localInfo(child, cols))
		}
	}
	return out.String()
}

func (b *ContextBuilder) sceneBlock(center scene.Vec3, cols columns) string {
	var virtual, anchors []scene.Entity
	for _, e := range b.entities() {
		if e.Pose().Position.Distance(center) > b.cfg.Radius {
			continue
		}
		if len(labelsOf(e)) > 0 {
			anchors = append(anchors, e)
			continue
		}
		if parent := e.Parent(); (parent == nil || len(labelsOf(parent)) > 0) && !b.excluded(e) {
			virtual = append(virtual, e)
		}
	}
	byDistance := func(list []scene.Entity) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Pose().Position.Distance(center) < list[j].Pose().Position.Distance(center)
		})
	}
	byDistance(virtual)
	byDistance(anchors)

	var out strings.Builder
	if len(virtual) > 0 {
		out.WriteString("The following are the contextual data associated to the virtual objects:\n")
	}
	for _, root := range virtual {
		scene.Walk(root, func(e scene.Entity) bool {
			if !e.Alive() {
				return false
			}
			if e == root || e.Bounds().Extents != scene.Zero {
				out.WriteString(worldInfo(e, cols))
			}
			return true
		})
	}
	if len(anchors) > 0 {
		out.WriteString("The following are the contextual data associated to the real-world objects, here we use uuid and labels to replace object name, the position refers to center of surface:\n")
	}
	for _, anchor := range anchors {
		out.WriteString(b.anchorInfo(anchor, cols))
	}
	return out.String()
}

func (b *ContextBuilder) userBlock(cols columns) string {
	var out strings.Builder
	if user := b.find(b.cfg.UserName); user != nil {
		out.WriteString(worldInfo(user, cols))
	}
	if eye := b.find(b.cfg.ViewpointName); eye != nil {
		out.WriteString(worldInfo(eye, cols))
	}
	for _, hand := range b.cfg.Hands {
		root := b.find(hand.Root)
		if root == nil {
			continue
		}
		out.WriteString("The following are the contextual data associated to the " + hand.Side + " hand, here we use uuid and labels to replace object name: \n")
		wanted := make(map[string]bool, len(hand.Joints))
		for _, j := range hand.Joints {
			wanted[j] = true
		}
		scene.Walk(root, func(e scene.Entity) bool {
			if !e.Alive() {
				return false
			}
			if wanted[e.Name()] {
				out.WriteString(b.jointInfo(e, cols))
			}
			return true
		})
	}
	return out.String()
}

func (b *ContextBuilder) anchorInfo(e scene.Entity, cols columns) string {
	pose := e.Pose()
	fields := []string{b.idOf(e), strings.Join(labelsOf(e), ",")}
	fields = append(fields, cols.render(pose.Position, pose.Rotation, scene.One, e)...)
	return strings.Join(fields, " ") + "\n"
}

func (b *ContextBuilder) jointInfo(e scene.Entity, cols columns) string {
	pose := e.Pose()
	fields := []string{b.idOf(e), e.Name()}
	fields = append(fields, cols.render(pose.Position, pose.Rotation, e.LocalScale(), e)...)
	return strings.Join(fields, " ") + "\n"
}

func (b *ContextBuilder) idOf(e scene.Entity) string {
	if b.ids == nil {
		return uuid.Nil.String()
	}
	return b.ids.GetOrAssignID(e).String()
}

func (b *ContextBuilder) excluded(e scene.Entity) bool {
	name := e.Name()
	if name == "" {
		return false
	}
	switch name {
	case b.cfg.AgentName, b.cfg.UserName, b.cfg.ViewpointName, b.cfg.PlaceholderName:
		return true
	}
	for _, hand := range b.cfg.Hands {
		if name == hand.Root {
			return true
		}
	}
	return false
}

func (b *ContextBuilder) entities() []scene.Entity {
	if b == nil || b.provider == nil {
		return nil
	}
	return b.provider.Entities()
}

func (b *ContextBuilder) find(name string) scene.Entity {
	if name == "" {
		return nil
	}
	for _, e := range b.entities() {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

func (c columns) render(pos scene.Vec3, rot scene.Quat, scale scene.Vec3, e scene.Entity) []string {
	out := make([]string, 4)
	if c.position {
		out[0] = pos.String()
	}
	if c.orientation {
		out[1] = rot.EulerAngles().String()
	}
	if c.scale {
		out[2] = scale.String()
	}
	if c.size {
		out[3] = scene.BoundsOf(e).Size().String()
	}
	return out
}

func worldInfo(e scene.Entity, cols columns) string {
	pose := e.Pose()
	fields := append([]string{e.Name()}, cols.render(pose.Position, pose.Rotation, e.LocalScale(), e)...)
	return strings.Join(fields, " ") + "\n"
}

func localInfo(e scene.Entity, cols columns) string {
	fields := append([]string{e.Name()}, cols.render(e.LocalPosition(), localRotation(e), e.LocalScale(), e)...)
	return strings.Join(fields, " ") + " (local)\n"
}

func localRotation(e scene.Entity) scene.Quat {
	if lr, ok := e.(interface{ LocalRotation() scene.Quat }); ok {
		return lr.LocalRotation()
	}
	rot := e.Pose().Rotation
	if parent := e.Parent(); parent != nil {
		return parent.Pose().Rotation.Inverse().Mul(rot)
	}
	return rot
}

func labelsOf(e scene.Entity) []string {
	if l, ok := e.(scene.Labeled); ok {
		return l.Labels()
	}
	return nil
}
