package math

import "github.com/spaghettifunk/meshsync/engine/core"

// PointNormals computes area weighted point normals for a polygon mesh
// described by face vertex counts and a flattened vertex list.
//
// The result follows the left-handed (clockwise) winding convention the
// renderer assumes: a face wound clockwise when seen from outside gets an
// outward normal. Callers holding right-handed meshes must negate the result.
// Faces referencing points out of range are skipped.
func PointNormals(counts []int32, vertices []int32, points []Vec3) []Vec3 {
	normals := make([]Vec3, len(points))

	base := 0
	skipped := 0
	for _, c := range counts {
		n := int(c)
		if n < 3 || base+n > len(vertices) {
			base += n
			skipped++
			continue
		}
		face := vertices[base : base+n]
		base += n

		valid := true
		for _, idx := range face {
			if idx < 0 || int(idx) >= len(points) {
				valid = false
				break
			}
		}
		if !valid {
			skipped++
			continue
		}

		// Newell's method gives the counter-clockwise normal scaled by twice
		// the polygon area, so the accumulation is area weighted for free.
		var fn Vec3
		for i := 0; i < n; i++ {
			pi := points[face[i]]
			pj := points[face[(i+1)%n]]
			fn.X += (pi.Y - pj.Y) * (pi.Z + pj.Z)
			fn.Y += (pi.Z - pj.Z) * (pi.X + pj.X)
			fn.Z += (pi.X - pj.X) * (pi.Y + pj.Y)
		}
		fn = fn.MulScalar(-1)

		for _, idx := range face {
			normals[idx] = normals[idx].Add(fn)
		}
	}

	for i := range normals {
		normals[i] = normals[i].Normalized()
	}

	if skipped > 0 {
		core.LogDebug("PointNormals: skipped %d degenerate or out of range faces.", skipped)
	}
	return normals
}

// ReversePolygons returns an indirection into the vertex list that flips the
// winding of every face while keeping each face's first vertex in place.
// Applying it to per-vertex data keeps face-varying attributes aligned with
// the reversed topology.
func ReversePolygons(counts []int32, vertexCount int) []int32 {
	indirect := make([]int32, vertexCount)
	for i := range indirect {
		indirect[i] = int32(i)
	}

	base := 0
	for _, c := range counts {
		numVerts := int(c)
		if base+numVerts > vertexCount {
			break
		}
		for p := 1; p < (numVerts+1)/2; p++ {
			indirect[base+p], indirect[base+numVerts-p] = indirect[base+numVerts-p], indirect[base+p]
		}
		base += numVerts
	}
	return indirect
}

// ApplyIndirect gathers values through an indirection, tuple by tuple.
func ApplyIndirect[T any](values []T, tupleSize int, indirect []int32) []T {
	out := make([]T, len(indirect)*tupleSize)
	for i, src := range indirect {
		copy(out[i*tupleSize:(i+1)*tupleSize], values[int(src)*tupleSize:(int(src)+1)*tupleSize])
	}
	return out
}
