// Package objio reads and writes triangle meshes in the Wavefront OBJ
// format. Only v, vn and f directives are interpreted; everything else is
// ignored. Faces with more than three corners are fan-triangulated.
package objio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/rs/zerolog/log"
)

// Read loads a mesh from an OBJ file.
func Read[T geometry.Float](path string) (*geometry.Mesh[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mesh, err := Decode[T](f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mesh, nil
}

// Write stores a mesh as an OBJ file.
func Write[T geometry.Float](path string, mesh *geometry.Mesh[T]) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := Encode(w, mesh); err != nil {
		return err
	}
	return w.Flush()
}

// Encode writes a mesh in OBJ format. Coordinates are written with enough
// digits to round-trip double precision.
func Encode[T geometry.Float](w io.Writer, mesh *geometry.Mesh[T]) error {
	for _, v := range mesh.Vertices() {
		if _, err := fmt.Fprintf(w, "v %.17g %.17g %.17g\n",
			float64(v.X), float64(v.Y), float64(v.Z)); err != nil {
			return err
		}
	}
	for _, n := range mesh.Normals() {
		if _, err := fmt.Fprintf(w, "vn %.17g %.17g %.17g\n",
			float64(n.X), float64(n.Y), float64(n.Z)); err != nil {
			return err
		}
	}
	withNormals := mesh.Normals() != nil
	for _, face := range mesh.Faces() {
		var err error
		if withNormals {
			_, err = fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n",
				face[0]+1, face[0]+1, face[1]+1, face[1]+1, face[2]+1, face[2]+1)
		} else {
			_, err = fmt.Fprintf(w, "f %d %d %d\n", face[0]+1, face[1]+1, face[2]+1)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a mesh in OBJ format. Vertex references may appear in any
// of the forms i, i/j, i/j/k and i//k; negative indices count from the
// end of the vertex list.
func Decode[T geometry.Float](r io.Reader) (*geometry.Mesh[T], error) {
	mesh := geometry.NewMesh[T]()
	var normals []geometry.Vec3[T]

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec[T](fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNo, err)
			}
			mesh.AddVertices(v)
		case "vn":
			v, err := parseVec[T](fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", lineNo, err)
			}
			normals = append(normals, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				vi, _, err := parseFaceRef(ref, mesh.NumVertices(), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				corners = append(corners, vi)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.AddFaces([3]int{corners[0], corners[i], corners[i+1]})
			}
		default:
			// Unsupported directive; skip.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(normals) == mesh.NumVertices() {
		if err := mesh.SetNormals(normals); err != nil {
			return nil, err
		}
	} else if len(normals) > 0 {
		log.Debug().Int("normals", len(normals)).Int("vertices", mesh.NumVertices()).
			Msg("Normal count does not match vertex count, normals dropped")
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func parseVec[T geometry.Float](fields []string) (geometry.Vec3[T], error) {
	if len(fields) < 3 {
		return geometry.Vec3[T]{}, fmt.Errorf("want 3 coordinates, got %d", len(fields))
	}
	var out [3]T
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return geometry.Vec3[T]{}, err
		}
		out[i] = T(f)
	}
	return geometry.NewVec3(out[0], out[1], out[2]), nil
}

// parseFaceRef parses one face corner reference and resolves it to
// zero-based vertex and normal indices. The normal index is -1 when
// absent.
func parseFaceRef(ref string, numVertices, numNormals int) (int, int, error) {
	parts := strings.Split(ref, "/")
	vi, err := resolveIndex(parts[0], numVertices)
	if err != nil {
		return 0, 0, fmt.Errorf("vertex reference %q: %w", ref, err)
	}
	ni := -1
	if len(parts) == 3 && parts[2] != "" {
		ni, err = resolveIndex(parts[2], numNormals)
		if err != nil {
			return 0, 0, fmt.Errorf("normal reference %q: %w", ref, err)
		}
	}
	return vi, ni, nil
}

func resolveIndex(field string, count int) (int, error) {
	idx, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		idx = count + idx
	} else {
		idx--
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("index %s out of range, have %d", field, count)
	}
	return idx, nil
}
