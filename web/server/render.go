package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/loaders"
	"github.com/df07/go-global-illumination/pkg/log"
	"github.com/df07/go-global-illumination/pkg/photonmap"
	"github.com/df07/go-global-illumination/pkg/radiosity"
	"github.com/df07/go-global-illumination/pkg/renderer"
	"github.com/df07/go-global-illumination/pkg/scene"
	"github.com/labstack/echo/v4"
)

// RenderRequest holds the query parameters shared by the render endpoints
type RenderRequest struct {
	Scene               string  // Scene id (file name without extension)
	Width               int     // Image width
	Height              int     // Image height
	Bounces             int     // Reflection and diffuse bounce depth
	ShadowSamples       int     // 0: no shadows, 1: hard, >1: soft
	Antialias           int     // Samples per pixel
	Ambient             float64 // Grey ambient light
	Gather              bool    // Photon-mapped indirect light
	Photons             int     // Photons to shoot when gathering
	RadiosityIterations int     // Radiosity shooting iterations, 0 disables
	MaxPasses           int     // Progressive passes, 0 runs to full resolution
}

// PassUpdate is the payload of a progressive "pass" event
type PassUpdate struct {
	Generation int    `json:"generation"`
	DivsX      int    `json:"divsX"`
	DivsY      int    `json:"divsY"`
	ImageData  string `json:"imageData"` // Base64 encoded PNG
	IsLast     bool   `json:"isLast"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// requestError marks failures caused by the request rather than the server
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }

// parseRenderRequest parses request parameters
func parseRenderRequest(c echo.Context) (*RenderRequest, error) {
	query := c.QueryParams()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		return nil, fmt.Errorf("missing scene")
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, 1, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 400, 1, 2000); err != nil {
		return nil, err
	}
	if req.Bounces, err = parseIntParam(query, "bounces", 0, 0, 16); err != nil {
		return nil, err
	}
	if req.ShadowSamples, err = parseIntParam(query, "shadowSamples", 1, 0, 256); err != nil {
		return nil, err
	}
	if req.Antialias, err = parseIntParam(query, "antialias", 1, 1, 256); err != nil {
		return nil, err
	}
	if req.Ambient, err = parseFloatParam(query, "ambient", 0, 0, 1); err != nil {
		return nil, err
	}
	if req.Gather, err = parseBoolParam(query, "gather", false); err != nil {
		return nil, err
	}
	if req.Photons, err = parseIntParam(query, "photons", scene.DefaultParams().NumPhotonsToShoot, 1, 1000000); err != nil {
		return nil, err
	}
	if req.RadiosityIterations, err = parseIntParam(query, "radiosity", 0, 0, 100000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", 0, 0, 100); err != nil {
		return nil, err
	}
	return req, nil
}

// params maps a request onto render parameters
func (req *RenderRequest) params() scene.Params {
	p := scene.DefaultParams()
	p.Width = req.Width
	p.Height = req.Height
	p.NumBounces = req.Bounces
	p.NumShadowSamples = req.ShadowSamples
	p.NumAntialiasSamples = req.Antialias
	p.AmbientLight = core.NewVec3(req.Ambient, req.Ambient, req.Ambient)
	p.GatherIndirect = req.Gather
	p.NumPhotonsToShoot = req.Photons
	return p
}

// setupRayTracer loads the requested scene and prepares its estimators
func (s *Server) setupRayTracer(req *RenderRequest, progress core.Logger) (*renderer.RayTracer, error) {
	path, err := scene.FindScene(s.scenesDir, req.Scene)
	if err != nil {
		return nil, &requestError{status: http.StatusNotFound, err: err}
	}

	sc, err := scene.Load(path, req.params())
	if err != nil {
		return nil, err
	}

	var pm *photonmap.PhotonMap
	if sc.Params.GatherIndirect {
		pm = photonmap.New(sc)
		stats := pm.TracePhotons()
		progress.Printf("Traced %d photons, stored %d\n", stats.Emitted, stats.Stored)
	}

	rt := renderer.NewRayTracer(sc, pm)
	if req.RadiosityIterations > 0 {
		rad := radiosity.New(sc)
		iterations, total := rad.Solve(0.01, req.RadiosityIterations)
		progress.Printf("Radiosity: %d iterations, %.4g undistributed\n", iterations, total)
		rt.SetRadiosity(rad)
	}
	return rt, nil
}

// errorResponse writes err as JSON with its request status, or 500
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	if reqErr, ok := err.(*requestError); ok {
		status = reqErr.status
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// handleRender renders the whole frame with the tile renderer and returns a PNG
func (s *Server) handleRender(c echo.Context) error {
	req, err := parseRenderRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
	}

	progress := log.Printer{Logger: logger}
	rt, err := s.setupRayTracer(req, progress)
	if err != nil {
		return errorResponse(c, err)
	}

	img, stats, err := renderer.RenderImage(c.Request().Context(), rt, progress)
	if err != nil {
		return errorResponse(c, err)
	}

	data, err := encodePNG(img)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Response().Header().Set("X-Render-Time-Ms", fmt.Sprintf("%d", stats.Duration.Milliseconds()))
	return c.Blob(http.StatusOK, "image/png", data)
}

// handleProgressive streams coarse-to-fine passes as Server-Sent Events:
// "console" progress lines, one "pass" per completed pass, then "complete"
// or "error"
func (s *Server) handleProgressive(c echo.Context) error {
	req, err := parseRenderRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
	}

	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	consoleChan := make(chan ConsoleMessage, 50)
	webLogger := NewWebLogger(renderID, consoleChan)

	rt, err := s.setupRayTracer(req, webLogger)
	if err != nil {
		return errorResponse(c, err)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	drawer := renderer.NewProgressiveDrawer(rt, core.NewSeededSampler(rt.Scene().Params.Seed), webLogger)
	drawer.MaxPasses = req.MaxPasses
	passChan, errChan := drawer.RenderProgressive(ctx)
	start := time.Now()

	for passChan != nil {
		select {
		case msg := <-consoleChan:
			if err := writeJSONEvent(w, "console", msg); err != nil {
				return nil
			}

		case pass, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			imageData, err := encodePNG(pass.Image)
			if err != nil {
				return writeSSEEvent(w, "error", err.Error())
			}
			update := PassUpdate{
				Generation: pass.Generation,
				DivsX:      pass.DivsX,
				DivsY:      pass.DivsY,
				ImageData:  base64.StdEncoding.EncodeToString(imageData),
				IsLast:     pass.IsLast,
				ElapsedMs:  time.Since(start).Milliseconds(),
			}
			if err := writeJSONEvent(w, "pass", update); err != nil {
				return nil
			}

		case <-ctx.Done():
			// client went away; the drawer stops on the same context
			return nil
		}
	}

	if err := <-errChan; err != nil {
		return writeSSEEvent(w, "error", fmt.Sprintf("Rendering failed: %v", err))
	}
	return writeSSEEvent(w, "complete", "Rendering completed")
}

// encodePNG converts an image to PNG bytes
func encodePNG(img *loaders.ImageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.ToRGBA()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONEvent(w *echo.Response, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writeSSEEvent(w, event, string(data))
}

// writeSSEEvent writes one event and flushes it to the client
func writeSSEEvent(w *echo.Response, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
