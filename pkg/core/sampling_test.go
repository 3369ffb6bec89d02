package core

import (
	"math"
	"testing"
)

func TestRandomUnitVector(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 1000; i++ {
		v := RandomUnitVector(sampler)
		if math.Abs(v.Length()-1) > 1e-9 {
			t.Fatalf("Expected unit length, got %v", v.Length())
		}
	}
}

func TestRandomDiffuseDirection(t *testing.T) {
	sampler := NewSeededSampler(7)
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(0, 0, -1),
		NewVec3(1, 1, 1).Normalize(),
	}

	for _, normal := range normals {
		sum := 0.0
		const n = 2000
		for i := 0; i < n; i++ {
			d := RandomDiffuseDirection(normal, sampler)
			cos := d.Dot(normal)
			if cos < -1e-9 {
				t.Fatalf("Direction %v below hemisphere of %v", d, normal)
			}
			sum += cos
		}
		// Cosine-weighted hemisphere has E[cos] = 2/3
		mean := sum / n
		if math.Abs(mean-2.0/3.0) > 0.05 {
			t.Errorf("Expected mean cosine near 2/3 for %v, got %v", normal, mean)
		}
	}
}

func TestSampleCosineHemisphere(t *testing.T) {
	sampler := NewSeededSampler(1)
	normal := NewVec3(0, 0, 1)
	for i := 0; i < 500; i++ {
		d := SampleCosineHemisphere(normal, sampler.Get2D())
		if d.Dot(normal) < 0 {
			t.Fatalf("Direction %v points below the surface", d)
		}
	}
}

func TestStratifiedSample2D(t *testing.T) {
	sampler := NewSeededSampler(3)
	const n = 4
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := StratifiedSample2D(i, j, n, sampler)
			if s.X < float64(i)/n || s.X >= float64(i+1)/n || s.Y < float64(j)/n || s.Y >= float64(j+1)/n {
				t.Errorf("Sample %v escaped cell (%d,%d)", s, i, j)
			}
		}
	}
}
