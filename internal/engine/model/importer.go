package model

import (
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/internal/logger"
	"github.com/Faultbox/sceneview/pkg/math"
)

// TextureLoader uploads decoded images and returns GPU handles. It is an
// interface so the importer can be exercised without a GL context;
// texture.Cache is the production implementation.
type TextureLoader interface {
	Load(path string, space texture.ColorSpace) (uint32, error)
	LoadBytes(key string, data []byte, space texture.ColorSpace) (uint32, error)
}

// nodeWork is one pending node in the hierarchy walk.
type nodeWork struct {
	node   int
	parent math.Mat4
}

// Import opens a .gltf or .glb file and flattens it into a Model. Node
// transforms are baked into vertex data, so the result has no hierarchy.
// Open and parse failures are fatal; a failed texture only leaves its
// slot unbound.
func Import(path string, loader TextureLoader) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	imp := &importer{
		doc:       doc,
		dir:       filepath.Dir(path),
		path:      path,
		loader:    loader,
		materials: resolveMaterials(doc),
		model:     newModel(),
		log:       logger.Named("importer"),
	}

	imp.walk()

	if len(imp.model.Meshes) == 0 {
		imp.log.Warn("model imported with no meshes", zap.String("path", path))
	}
	imp.log.Info("model imported",
		zap.String("path", path),
		zap.Int("meshes", imp.model.MeshCount()),
		zap.Int("vertices", imp.model.VertexCount()),
		zap.Int("textures", imp.model.TextureCount()))

	return imp.model, nil
}

type importer struct {
	doc       *gltf.Document
	dir       string
	path      string
	loader    TextureLoader
	materials []resolvedMaterial
	model     *Model
	log       *zap.Logger
}

// walk visits the node hierarchy with an explicit worklist instead of
// recursion, so arbitrarily deep files cannot blow the stack. Children
// are pushed in reverse, which keeps depth-first order.
func (imp *importer) walk() {
	roots := imp.roots()
	stack := make([]nodeWork, 0, len(imp.doc.Nodes))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, nodeWork{node: roots[i], parent: math.Identity()})
	}

	for len(stack) > 0 {
		work := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if work.node < 0 || work.node >= len(imp.doc.Nodes) {
			continue
		}
		gn := imp.doc.Nodes[work.node]
		world := work.parent.Mul(nodeMatrix(gn))

		if gn.Mesh != nil && *gn.Mesh < len(imp.doc.Meshes) {
			imp.addMesh(imp.doc.Meshes[*gn.Mesh], world)
		}

		for i := len(gn.Children) - 1; i >= 0; i-- {
			stack = append(stack, nodeWork{node: gn.Children[i], parent: world})
		}
	}
}

// roots returns the node indices to start the walk from: the default
// scene when declared, otherwise every parentless node.
func (imp *importer) roots() []int {
	if imp.doc.Scene != nil && *imp.doc.Scene < len(imp.doc.Scenes) {
		return imp.doc.Scenes[*imp.doc.Scene].Nodes
	}

	hasParent := make([]bool, len(imp.doc.Nodes))
	for _, gn := range imp.doc.Nodes {
		for _, c := range gn.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range imp.doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

var identityMatrix = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// nodeMatrix returns the node's local transform: the explicit matrix
// when one is set, otherwise the composed TRS properties. The glTF spec
// makes matrix and TRS mutually exclusive, so an identity matrix always
// means the TRS properties carry the transform.
func nodeMatrix(gn *gltf.Node) math.Mat4 {
	if gn.Matrix != identityMatrix && gn.Matrix != ([16]float64{}) {
		return math.Mat4FromFloat64(gn.Matrix)
	}

	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault()
	s := gn.ScaleOrDefault()

	q := math.Quat{
		X: float32(r[0]), Y: float32(r[1]),
		Z: float32(r[2]), W: float32(r[3]),
	}
	return math.Translate(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul(q.ToMat4()).
		Mul(math.Scale(float32(s[0]), float32(s[1]), float32(s[2])))
}

// addMesh flattens every primitive of a glTF mesh under the given world
// transform and appends the results to the model.
func (imp *importer) addMesh(gm *gltf.Mesh, world math.Mat4) {
	for pi, prim := range gm.Primitives {
		mesh, err := imp.buildPrimitive(prim, world)
		if err != nil {
			imp.log.Warn("skipping primitive",
				zap.String("mesh", gm.Name),
				zap.Int("primitive", pi),
				zap.Error(err))
			continue
		}
		imp.model.Meshes = append(imp.model.Meshes, mesh)
	}
}

// buildPrimitive reads one primitive's attributes, generates tangents if
// the file has none, bakes the world transform into the vertices and
// resolves material and textures.
func (imp *importer) buildPrimitive(prim *gltf.Primitive, world math.Mat4) (*Mesh, error) {
	doc := imp.doc

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	var tangents [][4]float32
	var joints [][4]uint16
	var weights [][4]float32

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TANGENT"]; ok {
		tangents, _ = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["JOINTS_0"]; ok {
		joints, _ = modeler.ReadJoints(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["WEIGHTS_0"]; ok {
		weights, _ = modeler.ReadWeights(doc, doc.Accessors[idx], nil)
	}

	vertices := make([]Vertex, len(positions))
	for i, p := range positions {
		v := Vertex{Position: p}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		if i < len(tangents) {
			t := tangents[i]
			v.Tangent = [3]float32{t[0], t[1], t[2]}
			// Bitangent direction comes from the handedness in w.
			b := vec3(v.Normal).Cross(vec3(v.Tangent)).Scale(t[3])
			v.Bitangent = arr3(b)
		}
		if i < len(joints) {
			v.Joints = joints[i]
		}
		if i < len(weights) {
			v.Weights = weights[i]
		}
		vertices[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	if len(tangents) == 0 && len(normals) > 0 && len(uvs) > 0 {
		ComputeTangents(vertices, indices)
	}

	bakeTransform(vertices, world)

	mesh := &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Centroid: centroid(vertices),
		Material: DefaultMaterial(),
	}

	blend := false
	if prim.Material != nil && *prim.Material < len(imp.materials) {
		rm := imp.materials[*prim.Material]
		mesh.Material = rm.factors
		blend = rm.blend
		for _, slot := range rm.slots {
			tex := imp.loadSlot(slot)
			if tex != nil {
				mesh.Textures = append(mesh.Textures, tex)
			}
		}
	}

	paths := make([]string, len(mesh.Textures))
	for i, t := range mesh.Textures {
		paths[i] = t.Path
	}
	mesh.Material.Transparent = DeriveTransparency(mesh.Material.BaseColorFactor[3], blend, paths)

	return mesh, nil
}

// bakeTransform applies the world matrix to every vertex: positions by
// the full 4x4, basis vectors by the inverse-transpose 3x3, renormalized.
// Zero basis vectors stay zero.
func bakeTransform(vertices []Vertex, world math.Mat4) {
	if world == math.Identity() {
		return
	}
	normalMat := world.NormalMatrix()

	for i := range vertices {
		v := &vertices[i]
		v.Position = world.TransformPoint(v.Position)
		v.Normal = bakeDirection(normalMat, v.Normal)
		v.Tangent = bakeDirection(normalMat, v.Tangent)
		v.Bitangent = bakeDirection(normalMat, v.Bitangent)
	}
}

func bakeDirection(m math.Mat3, d [3]float32) [3]float32 {
	if d == ([3]float32{}) {
		return d
	}
	return arr3(m.MulVec3(vec3(d)).Normalize())
}

// centroid returns the mean baked vertex position, the sort key for the
// blended draw pass.
func centroid(vertices []Vertex) math.Vec3 {
	if len(vertices) == 0 {
		return math.Vec3{}
	}
	var sum math.Vec3
	for _, v := range vertices {
		sum = sum.Add(vec3(v.Position))
	}
	return sum.Scale(1 / float32(len(vertices)))
}

// loadSlot resolves a material texture slot to a registry texture,
// loading and uploading the image on first sight of its path. A failed
// load is logged and the slot dropped.
func (imp *importer) loadSlot(slot textureSlot) *Texture {
	doc := imp.doc
	if slot.texture < 0 || slot.texture >= len(doc.Textures) {
		return nil
	}
	gt := doc.Textures[slot.texture]
	if gt.Source == nil || *gt.Source >= len(doc.Images) {
		return nil
	}
	img := doc.Images[*gt.Source]

	var key string
	var load func() (uint32, error)

	switch {
	case img.BufferView != nil:
		// Binary GLB: image bytes live in a buffer view.
		key = fmt.Sprintf("%s#image%d", imp.path, *gt.Source)
		load = func() (uint32, error) {
			raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
			if err != nil {
				return 0, fmt.Errorf("image buffer view: %w", err)
			}
			return imp.loader.LoadBytes(key, raw, slot.space)
		}
	case img.IsEmbeddedResource():
		// Data-URI image: the payload is base64 inside the URI itself.
		key = fmt.Sprintf("%s#image%d", imp.path, *gt.Source)
		load = func() (uint32, error) {
			raw, err := img.MarshalData()
			if err != nil {
				return 0, fmt.Errorf("embedded image: %w", err)
			}
			return imp.loader.LoadBytes(key, raw, slot.space)
		}
	case img.URI != "":
		key = filepath.Join(imp.dir, img.URI)
		load = func() (uint32, error) {
			return imp.loader.Load(key, slot.space)
		}
	default:
		imp.log.Warn("texture image has no usable source",
			zap.Int("image", *gt.Source),
			zap.String("kind", slot.kind.String()))
		return nil
	}

	if existing := imp.model.lookupTexture(key); existing != nil {
		return existing
	}

	handle, err := load()
	if err != nil {
		imp.log.Warn("texture load failed",
			zap.String("path", key),
			zap.String("kind", slot.kind.String()),
			zap.Error(err))
		return nil
	}

	tex := &Texture{
		Handle: handle,
		Kind:   slot.kind,
		Path:   key,
		UV:     slot.uv,
	}
	imp.model.registerTexture(tex)
	return tex
}
