package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-global-illumination/pkg/camera"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/geometry"
	"github.com/df07/go-global-illumination/pkg/log"
	"github.com/df07/go-global-illumination/pkg/material"
	"github.com/df07/go-global-illumination/pkg/mesh"
)

var sceneLogger = log.New("scene loader")

// tokenizer splits a scene stream into whitespace separated tokens while
// tracking the current line for error messages. Lines starting with '#'
// are skipped.
type tokenizer struct {
	scanner *bufio.Scanner
	pending []string
	line    int
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{scanner: bufio.NewScanner(r)}
}

// Next implements camera.Tokens
func (t *tokenizer) Next() (string, bool) {
	for len(t.pending) == 0 {
		if !t.scanner.Scan() {
			return "", false
		}
		t.line++
		fields := strings.Fields(t.scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		t.pending = fields
	}
	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok, true
}

// sceneParser holds the state of a single LoadScene call
type sceneParser struct {
	tokens    *tokenizer
	dir       string
	mesh      *mesh.Mesh
	active    *material.Material
	hasCamera bool
}

// LoadScene parses a scene file into a new mesh. Texture paths are resolved
// relative to the scene file's directory. A scene without a camera block
// receives a default perspective camera framing its bounding box.
//
// Any parse failure (unknown token, malformed number, face or primitive
// before a material, non-manifold face) aborts the load and returns an
// error; no partially built mesh is returned.
func LoadScene(path string, tess geometry.Tessellation) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open scene %q: %w", path, err)
	}
	defer f.Close()

	sceneLogger.Noticef(`parsing scene from "%s"`, path)
	start := time.Now()

	m, err := ReadScene(f, filepath.Dir(path), tess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sceneLogger.Noticef("mesh loaded: %d faces and %d edges in %d ms", m.NumFaces(), m.NumEdges(), time.Since(start).Milliseconds())
	return m, nil
}

// ReadScene parses scene tokens from r. dir is used to resolve texture files.
func ReadScene(r io.Reader, dir string, tess geometry.Tessellation) (m *mesh.Mesh, err error) {
	p := &sceneParser{
		tokens: newTokenizer(r),
		dir:    dir,
		mesh:   mesh.New(tess),
	}

	// Mesh construction panics on broken invariants (duplicate directed
	// edges, invalid primitives); surface those as load errors.
	defer func() {
		if rec := recover(); rec != nil {
			m = nil
			err = p.emitError("%v", rec)
		}
	}()

	if err := p.parse(); err != nil {
		return nil, err
	}
	if err := p.tokens.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}

	if !p.hasCamera {
		sceneLogger.Info("no camera provided, creating default camera")
		p.mesh.Camera = camera.NewDefault(p.mesh.BoundingBox())
	}
	return p.mesh, nil
}

func (p *sceneParser) parse() error {
	for {
		tok, ok := p.tokens.Next()
		if !ok {
			return nil
		}

		var err error
		switch tok {
		case "v":
			var pos core.Vec3
			if pos, err = p.readVec3(tok); err == nil {
				p.mesh.AddVertex(pos)
			}
		case "vt":
			err = p.parseTexCoord()
		case "f":
			err = p.parseFace()
		case "s":
			err = p.parseSphere()
		case "r":
			err = p.parseRing()
		case "background_color":
			p.mesh.Background, err = p.readVec3(tok)
		case "PerspectiveCamera", "OrthographicCamera":
			var cam camera.Camera
			if cam, err = camera.Parse(tok, p.tokens); err == nil {
				p.mesh.Camera = cam
				p.hasCamera = true
			}
		case "m":
			err = p.parseMaterialSelect()
		case "material":
			err = p.parseMaterial()
		default:
			err = fmt.Errorf("unknown token %q", tok)
		}

		if err != nil {
			return p.emitError("%v", err)
		}
	}
}

func (p *sceneParser) parseTexCoord() error {
	if p.mesh.NumVertices() == 0 {
		return fmt.Errorf(`"vt" before any vertex`)
	}
	s, err := p.readFloat("vt")
	if err != nil {
		return err
	}
	t, err := p.readFloat("vt")
	if err != nil {
		return err
	}
	p.mesh.SetTextureCoordinates(mesh.VertexID(p.mesh.NumVertices()-1), core.NewVec2(s, t))
	return nil
}

func (p *sceneParser) parseFace() error {
	var ids [4]mesh.VertexID
	for i := range ids {
		idx, err := p.readInt("f")
		if err != nil {
			return err
		}
		if idx < 1 || idx > p.mesh.NumVertices() {
			return fmt.Errorf("face vertex index %d out of range [1, %d]", idx, p.mesh.NumVertices())
		}
		ids[i] = mesh.VertexID(idx - 1)
	}
	if p.active == nil {
		return fmt.Errorf("face defined before any active material")
	}
	p.mesh.AddFace(ids[0], ids[1], ids[2], ids[3], p.active, mesh.FaceOriginal)
	return nil
}

func (p *sceneParser) parseSphere() error {
	center, err := p.readVec3("s")
	if err != nil {
		return err
	}
	radius, err := p.readFloat("s")
	if err != nil {
		return err
	}
	if p.active == nil {
		return fmt.Errorf("sphere defined before any active material")
	}
	p.mesh.AddPrimitive(geometry.NewSphere(center, radius, p.active))
	return nil
}

func (p *sceneParser) parseRing() error {
	center, err := p.readVec3("r")
	if err != nil {
		return err
	}
	var vals [3]float64
	for i := range vals {
		if vals[i], err = p.readFloat("r"); err != nil {
			return err
		}
	}
	if p.active == nil {
		return fmt.Errorf("cylinder ring defined before any active material")
	}
	p.mesh.AddPrimitive(geometry.NewCylinderRing(center, vals[0], vals[1], vals[2], p.active))
	return nil
}

func (p *sceneParser) parseMaterialSelect() error {
	idx, err := p.readInt("m")
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(p.mesh.Materials) {
		return fmt.Errorf("material index %d out of range [0, %d)", idx, len(p.mesh.Materials))
	}
	p.active = p.mesh.Materials[idx]
	return nil
}

// parseMaterial reads
//
//	material diffuse r g b | texture_file path
//	         reflective r g b
//	         [roughness v]
//	         emitted r g b
func (p *sceneParser) parseMaterial() error {
	kind, err := p.expect("material")
	if err != nil {
		return err
	}

	var (
		diffuse     core.Vec3
		textureFile string
		texture     *material.ImageTexture
	)
	switch kind {
	case "diffuse":
		if diffuse, err = p.readVec3(kind); err != nil {
			return err
		}
	case "texture_file":
		name, err := p.expect(kind)
		if err != nil {
			return err
		}
		textureFile = filepath.Join(p.dir, name)
		img, err := LoadImage(textureFile)
		if err != nil {
			return fmt.Errorf("loading texture: %w", err)
		}
		texture = material.NewImageTexture(img.Width, img.Height, img.LinearPixels())
	default:
		return fmt.Errorf(`expected "diffuse" or "texture_file"; got %q`, kind)
	}

	if err := p.expectKeyword("reflective"); err != nil {
		return err
	}
	reflective, err := p.readVec3("reflective")
	if err != nil {
		return err
	}

	roughness := 0.0
	key, err := p.expect("material")
	if err != nil {
		return err
	}
	if key == "roughness" {
		if roughness, err = p.readFloat(key); err != nil {
			return err
		}
		if key, err = p.expect("material"); err != nil {
			return err
		}
	}
	if key != "emitted" {
		return fmt.Errorf(`expected "emitted"; got %q`, key)
	}
	emitted, err := p.readVec3(key)
	if err != nil {
		return err
	}

	if texture != nil {
		p.mesh.AddMaterial(material.NewTexturedMaterial(textureFile, texture, reflective, emitted, roughness))
	} else {
		p.mesh.AddMaterial(material.NewMaterial(diffuse, reflective, emitted, roughness))
	}
	return nil
}

func (p *sceneParser) expect(context string) (string, error) {
	tok, ok := p.tokens.Next()
	if !ok {
		return "", fmt.Errorf("%q: unexpected end of file", context)
	}
	return tok, nil
}

func (p *sceneParser) expectKeyword(keyword string) error {
	tok, err := p.expect(keyword)
	if err != nil {
		return err
	}
	if tok != keyword {
		return fmt.Errorf("expected %q; got %q", keyword, tok)
	}
	return nil
}

func (p *sceneParser) readFloat(context string) (float64, error) {
	tok, err := p.expect(context)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", context, err)
	}
	return val, nil
}

func (p *sceneParser) readInt(context string) (int, error) {
	tok, err := p.expect(context)
	if err != nil {
		return 0, err
	}
	val, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", context, err)
	}
	return val, nil
}

func (p *sceneParser) readVec3(context string) (core.Vec3, error) {
	var v [3]float64
	for i := range v {
		val, err := p.readFloat(context)
		if err != nil {
			return core.Vec3{}, err
		}
		v[i] = val
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}

// Generate an error message prefixed with the current line.
func (p *sceneParser) emitError(format string, args ...interface{}) error {
	return fmt.Errorf("[line %d] error: %s", p.tokens.line, fmt.Sprintf(format, args...))
}
