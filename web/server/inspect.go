package server

import (
	"net/http"
	"strconv"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/log"
	"github.com/df07/go-global-illumination/pkg/material"
	"github.com/labstack/echo/v4"
)

// InspectResponse describes the surface seen through one pixel
type InspectResponse struct {
	Hit        bool                   `json:"hit"`
	Point      [3]float64             `json:"point"`
	Normal     [3]float64             `json:"normal"`
	Distance   float64                `json:"distance"`
	Color      [3]float64             `json:"color"` // Linear radiance along the pixel ray
	Properties map[string]interface{} `json:"properties"`
}

func vec(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// materialProperties lists the fields of the hit material
func materialProperties(m *material.Material, uv core.Vec2) map[string]interface{} {
	properties := map[string]interface{}{
		"diffuse":    vec(m.DiffuseColor(uv)),
		"reflective": vec(m.Reflective),
		"emitted":    vec(m.Emitted),
		"roughness":  m.Roughness,
	}
	if m.HasTexture() {
		properties["texture"] = m.TextureFile
	}
	return properties
}

// handleInspect casts the ray through pixel (x, y), y counted from the
// bottom, and reports what it hits
func (s *Server) handleInspect(c echo.Context) error {
	req, err := parseRenderRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
	}

	pixelX, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
	}
	pixelY, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
	}

	rt, err := s.setupRayTracer(req, log.Printer{Logger: logger})
	if err != nil {
		return errorResponse(c, err)
	}

	ray := rt.PixelRay(float64(pixelX)+0.5, float64(pixelY)+0.5)
	hit := material.NewHit()
	color := rt.TraceRay(ray, &hit, rt.Scene().Params.NumBounces, core.NewSeededSampler(rt.Scene().Params.Seed), nil)
	if !hit.Found() {
		return c.JSON(http.StatusOK, InspectResponse{Hit: false, Color: vec(color)})
	}

	return c.JSON(http.StatusOK, InspectResponse{
		Hit:        true,
		Point:      vec(ray.At(hit.T)),
		Normal:     vec(hit.Normal),
		Distance:   hit.T * ray.Direction.Length(),
		Color:      vec(color),
		Properties: materialProperties(hit.Material, hit.UV),
	})
}
