package mesh

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// EncodeGLB returns the mesh as a binary glTF document with a single primitive.  An
// empty mesh gives a document without meshes.
func EncodeGLB(p *PolyData) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	doc := gltf.NewDocument()
	doc.Asset.Generator = "segvol"
	if !p.IsEmpty() {
		positions := make([][3]float32, p.NumVertices())
		for i := range positions {
			copy(positions[i][:], p.Vertices[3*i:3*i+3])
		}
		posAccessor := modeler.WritePosition(doc, positions)
		indicesAccessor := modeler.WriteIndices(doc, p.Indices)
		prim := &gltf.Primitive{
			Attributes: gltf.PrimitiveAttributes{
				gltf.POSITION: posAccessor,
			},
			Indices: gltf.Index(indicesAccessor),
		}
		doc.Meshes = []*gltf.Mesh{{Name: "Segmentation", Primitives: []*gltf.Primitive{prim}}}
		doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	}

	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeGLB reads the first primitive of the first mesh of a binary glTF document.
func DecodeGLB(data []byte) (*PolyData, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding glb: %w", err)
	}
	p := &PolyData{}
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return p, nil
	}
	prim := doc.Meshes[0].Primitives[0]
	posIndex, found := prim.Attributes[gltf.POSITION]
	if !found || posIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("glb mesh has no positions")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], nil)
	if err != nil {
		return nil, fmt.Errorf("reading glb positions: %w", err)
	}
	p.Vertices = make([]float32, 0, 3*len(positions))
	for _, v := range positions {
		p.Vertices = append(p.Vertices, v[0], v[1], v[2])
	}
	if prim.Indices == nil {
		p.Indices = make([]uint32, len(positions))
		for i := range p.Indices {
			p.Indices[i] = uint32(i)
		}
	} else {
		if *prim.Indices >= len(doc.Accessors) {
			return nil, fmt.Errorf("glb mesh refers to missing index accessor %d", *prim.Indices)
		}
		if p.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("reading glb indices: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
