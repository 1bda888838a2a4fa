// Package api provides the REST API server for dicebridge
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/dicebridge/pkg/config"
	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/converter/kits"
	"github.com/james-see/dicebridge/pkg/host"
	"github.com/james-see/dicebridge/pkg/matrix"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title DICE Bridge API
// @version 1.0
// @description API for converting between host note dictionaries, DICE coordinate lists and MIDI
// @host localhost:8080
// @BasePath /api/v1

// Server serves the conversion endpoints over one dictionary store
type Server struct {
	store    *host.Store
	pipeline *matrix.Pipeline
	kit      converter.Kit
}

// NewServer creates a server. A nil pipeline uses the defaults and a nil kit the drum rack.
func NewServer(store *host.Store, pipeline *matrix.Pipeline, kit converter.Kit) *Server {
	if pipeline == nil {
		pipeline = matrix.NewPipeline()
	}
	if kit == nil {
		kit = kits.DrumRack()
	}
	return &Server{store: store, pipeline: pipeline, kit: kit}
}

// StartServer builds the store and pipeline from cfg and serves until the listener fails
func StartServer(cfg *config.Config) error {
	store := host.NewStore()
	if cfg.Store.Dir != "" {
		var err error
		store, err = host.NewPersistentStore(cfg.Store.Dir, cfg.Store.FlushDelay)
		if err != nil {
			return err
		}
		defer func() { _ = store.Flush() }()
	}

	pipeline := matrix.NewPipeline()
	pipeline.Threshold = float32(cfg.Generate.Threshold)
	pipeline.NoiseLevel = float32(cfg.Generate.NoiseLevel)
	pipeline.Seed = cfg.Generate.Seed

	s := NewServer(store, pipeline, kits.Lookup(cfg.Kit))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: s.Handler(cfg.Server.AllowedOrigins),
	}
	return srv.ListenAndServe()
}

// Handler wraps the router with CORS for the given origins
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.Router())
}

// Router registers every route
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/decode", s.handleDecode)
		v1.POST("/encode", s.handleEncode)
		v1.POST("/generate", s.handleGenerate)
		v1.GET("/dictionaries", s.listDictionaries)
		v1.GET("/dictionaries/:name", s.getDictionary)
		v1.PUT("/dictionaries/:name", s.putDictionary)
		v1.DELETE("/dictionaries/:name", s.deleteDictionary)
		v1.POST("/dictionaries/:name/decode", s.decodeDictionary)
		v1.POST("/dictionaries/:name/encode", s.encodeDictionary)
		v1.POST("/convert/:conversion", s.handleConversion)
		v1.GET("/formats", listFormats)
		v1.GET("/kits", listKits)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

type cooRequest struct {
	Coo converter.Coo `json:"coo"`
}

type decodeRequest struct {
	Coo        converter.Coo             `json:"coo"`
	Dictionary *converter.NoteDictionary `json:"dictionary,omitempty"`
}

type encodeResponse struct {
	Coo        converter.Coo             `json:"coo"`
	Dictionary *converter.NoteDictionary `json:"dictionary"`
}

type generateRequest struct {
	Coo        converter.Coo `json:"coo"`
	Threshold  *float32      `json:"threshold,omitempty"`
	NoiseLevel *float32      `json:"noise_level,omitempty"`
	Seed       *int64        `json:"seed,omitempty"`
}

func abort(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dicebridge",
	})
}

// handleDecode godoc
// @Summary Decode a coordinate list
// @Description Appends one note per coordinate pair to the given dictionary, or to a new one
// @Tags dice
// @Accept json
// @Produce json
// @Param request body decodeRequest true "Coordinates and optional dictionary"
// @Success 200 {object} converter.NoteDictionary
// @Failure 400 {object} map[string]string
// @Router /api/v1/decode [post]
func (s *Server) handleDecode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, converter.Decode(req.Coo, req.Dictionary))
}

// handleEncode godoc
// @Summary Encode a dictionary
// @Description Returns the coordinates of the on-grid notes and the dictionary left after they are consumed
// @Tags dice
// @Accept json
// @Produce json
// @Param request body converter.NoteDictionary true "Note dictionary"
// @Success 200 {object} encodeResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/encode [post]
func (s *Server) handleEncode(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	dict, err := converter.ParseDict(data)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	coo := converter.Encode(dict)
	c.JSON(http.StatusOK, encodeResponse{Coo: coo, Dictionary: dict})
}

// handleGenerate godoc
// @Summary Run a pattern through the DICE pipeline
// @Description Adds noise to the pattern, runs the model and thresholds the result
// @Tags dice
// @Accept json
// @Produce json
// @Param request body generateRequest true "Pattern and optional pipeline overrides"
// @Success 200 {object} map[string][]int
// @Failure 400 {object} map[string]string
// @Router /api/v1/generate [post]
func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	p := *s.pipeline
	if req.Threshold != nil {
		p.Threshold = *req.Threshold
	}
	if req.NoiseLevel != nil {
		p.NoiseLevel = *req.NoiseLevel
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}

	coo, err := p.Run(c.Request.Context(), req.Coo)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coo": converter.Coo(coo)})
}

// listDictionaries godoc
// @Summary List stored dictionaries
// @Tags dictionaries
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/dictionaries [get]
func (s *Server) listDictionaries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dictionaries": s.store.Names()})
}

// getDictionary godoc
// @Summary Get a stored dictionary
// @Tags dictionaries
// @Produce json
// @Param name path string true "Dictionary name"
// @Success 200 {object} converter.NoteDictionary
// @Failure 404 {object} map[string]string
// @Router /api/v1/dictionaries/{name} [get]
func (s *Server) getDictionary(c *gin.Context) {
	dict, ok := s.store.Get(c.Param("name"))
	if !ok {
		abort(c, http.StatusNotFound, host.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, dict)
}

// putDictionary godoc
// @Summary Store a dictionary
// @Description Accepts {"notes": [...]} or a bare array of notes
// @Tags dictionaries
// @Accept json
// @Produce json
// @Param name path string true "Dictionary name"
// @Param request body converter.NoteDictionary true "Note dictionary"
// @Success 200 {object} converter.NoteDictionary
// @Failure 400 {object} map[string]string
// @Router /api/v1/dictionaries/{name} [put]
func (s *Server) putDictionary(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	dict, err := converter.ParseDict(data)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	name := c.Param("name")
	if err := s.store.Put(name, dict); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	stored, _ := s.store.Get(name)
	c.JSON(http.StatusOK, stored)
}

// deleteDictionary godoc
// @Summary Delete a stored dictionary
// @Tags dictionaries
// @Param name path string true "Dictionary name"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/dictionaries/{name} [delete]
func (s *Server) deleteDictionary(c *gin.Context) {
	if !s.store.Delete(c.Param("name")) {
		abort(c, http.StatusNotFound, host.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// decodeDictionary godoc
// @Summary Decode into a stored dictionary
// @Description Appends the decoded notes to the named dictionary, creating it when missing
// @Tags dictionaries
// @Accept json
// @Produce json
// @Param name path string true "Dictionary name"
// @Param request body cooRequest true "Coordinates"
// @Success 200 {object} converter.NoteDictionary
// @Failure 400 {object} map[string]string
// @Router /api/v1/dictionaries/{name}/decode [post]
func (s *Server) decodeDictionary(c *gin.Context) {
	var req cooRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	name := c.Param("name")
	if err := host.DecodeInto(s.store, name, req.Coo); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	dict, _ := s.store.Get(name)
	c.JSON(http.StatusOK, dict)
}

// encodeDictionary godoc
// @Summary Encode a stored dictionary
// @Description Consumes the on-grid notes of the named dictionary. A missing dictionary encodes as empty.
// @Tags dictionaries
// @Produce json
// @Param name path string true "Dictionary name"
// @Success 200 {object} encodeResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/dictionaries/{name}/encode [post]
func (s *Server) encodeDictionary(c *gin.Context) {
	name := c.Param("name")
	coo, err := host.EncodeFrom(s.store, name)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	dict, _ := s.store.Get(name)
	c.JSON(http.StatusOK, encodeResponse{Coo: coo, Dictionary: dict})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []converter.Format{converter.FormatMIDI, converter.FormatDict, converter.FormatCoo},
		"conversions": converter.GetSupportedConversions(),
	})
}

// listKits godoc
// @Summary List kits
// @Description Returns the row layouts pitches can be labelled with
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]map[string]string
// @Router /api/v1/kits [get]
func listKits(c *gin.Context) {
	var list []gin.H
	for _, k := range kits.All() {
		list = append(list, gin.H{"id": k.ID(), "name": k.Name(), "labels": k.Labels()})
	}
	c.JSON(http.StatusOK, gin.H{"kits": list})
}

var knownFormats = map[string]bool{
	string(converter.FormatMIDI): true,
	string(converter.FormatDict): true,
	string(converter.FormatCoo):  true,
}

// parseConversion splits a name like "midi2coo" into its formats
func parseConversion(name string) (converter.Format, converter.Format, error) {
	from, to, ok := strings.Cut(strings.ToLower(name), "2")
	if ok && knownFormats[from] && knownFormats[to] && from != to {
		return converter.Format(from), converter.Format(to), nil
	}
	return "", "", fmt.Errorf("unsupported conversion: %s", name)
}

// handleConversion godoc
// @Summary Convert an uploaded file
// @Description Upload a file and receive it in another format. Conversions are coo2dict, dict2coo, midi2coo, coo2midi, midi2dict and dict2midi.
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param conversion path string true "Conversion name"
// @Param file formData file true "File to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/{conversion} [post]
func (s *Server) handleConversion(c *gin.Context) {
	fromFormat, toFormat, err := parseConversion(c.Param("conversion"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	conv := converter.New(s.kit)
	result, err := conv.Convert(data, fromFormat, toFormat)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	// Generate output filename
	outputExt := converter.OutputExtension(toFormat)
	outputName := "converted" + outputExt
	if base := header.Filename; base != "" {
		if i := strings.LastIndex(base, "."); i > 0 {
			base = base[:i]
		}
		outputName = base + outputExt
	}

	var contentType string
	switch toFormat {
	case converter.FormatMIDI:
		contentType = "audio/midi"
	case converter.FormatDict:
		contentType = "application/json"
	default:
		contentType = "text/plain; charset=utf-8"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, contentType, result)
}
