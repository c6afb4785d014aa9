package api

import (
	"net/http"
	"strconv"

	"github.com/fenestra-io/configurator/internal/core"
)

// imageTypeByName maps the query parameter to the vendor's type codes.
var imageTypeByName = map[string]core.ImageType{
	"png":  core.ImagePNG,
	"svg":  core.ImageSVG,
	"gltf": core.ImageGLTF,
}

// handleVisualization proxies a render of the session's current model
// state. The decoded image is streamed through as-is.
func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	typeName := q.Get("type")
	if typeName == "" {
		typeName = "png"
	}
	imgType, known := imageTypeByName[typeName]
	if !known {
		respondError(w, http.StatusBadRequest, "unknown image type: "+typeName)
		return
	}

	width := intQueryParam(q.Get("width"), 800)
	height := intQueryParam(q.Get("height"), 600)

	img, err := sess.Visualize(r.Context(), core.ImageRequest{
		Type:   imgType,
		Width:  width,
		Height: height,
	})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		s.logger.Warn("visualization write failed", "error", err)
	}
}

func intQueryParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
