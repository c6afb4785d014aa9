// Package cad adapts the vendor CAD service's JSON/XML API to the
// core.Backend port.
package cad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fenestra-io/configurator/internal/command"
	"github.com/fenestra-io/configurator/internal/core"
)

// Client talks to the vendor CAD service. It implements core.Backend.
type Client struct {
	baseURL     string
	makerPrefix string
	httpClient  *http.Client
	tokens      *tokenSource
	logger      *slog.Logger

	// createGroup deduplicates concurrent model creation for the same
	// catalog code: the vendor treats repeated creates as distinct models.
	createGroup singleflight.Group
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all vendor calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Config holds the vendor endpoint settings.
type Config struct {
	BaseURL     string
	TokenURL    string
	APIKey      string
	MakerPrefix string
	Timeout     time.Duration
}

// NewClient creates a vendor client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		makerPrefix: cfg.MakerPrefix,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tokens = newTokenSource(cfg.TokenURL, cfg.APIKey, c.httpClient)
	return c
}

// MakerPrefix returns the maker-specific option prefix this client applies.
func (c *Client) MakerPrefix() string {
	return c.makerPrefix
}

// CreateModel instantiates a vendor model from a catalog code. Concurrent
// calls for the same code share one round trip.
func (c *Client) CreateModel(ctx context.Context, modelCode string) (string, error) {
	if strings.TrimSpace(modelCode) == "" {
		return "", core.ErrValidation(core.CodeEmptyModelCode, "model code must not be empty")
	}

	result, err, shared := c.createGroup.Do(modelCode, func() (interface{}, error) {
		body, err := c.postJSON(ctx, "/models", map[string]string{"code": modelCode})
		if err != nil {
			return "", err
		}
		var payload struct {
			ModelGUID string `json:"modelGuid"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", core.ErrProtocol(core.CodeModelCreateFailed, "decoding model create response").WithCause(err)
		}
		if payload.ModelGUID == "" {
			return "", core.ErrProtocol(core.CodeModelCreateFailed, "model create response missing guid")
		}
		return payload.ModelGUID, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("model create deduplicated", "model_code", modelCode)
	}
	return result.(string), nil
}

// GetUIDefinition fetches the full option tree for a model instance.
// Unknown widget tags are normalized to WidgetUnknown and logged; one bad
// tag must not discard the whole tree.
func (c *Client) GetUIDefinition(ctx context.Context, modelGUID string) (*core.UIDefinition, error) {
	body, err := c.get(ctx, "/models/"+modelGUID+"/interface")
	if err != nil {
		return nil, err
	}

	var wire struct {
		Name    string `json:"name"`
		Options []struct {
			Order        int     `json:"order"`
			Tab          string  `json:"tab"`
			Section      string  `json:"section"`
			Widget       string  `json:"widget"`
			Maker        string  `json:"maker"`
			Code         string  `json:"code"`
			Type         string  `json:"type"`
			Description  string  `json:"description"`
			ValueString  string  `json:"valueString"`
			ValueNumeric float64 `json:"valueNumeric"`
			Hidden       bool    `json:"hidden"`
			Values       []struct {
				ValueString  string  `json:"valueString"`
				ValueNumeric float64 `json:"valueNumeric"`
			} `json:"values"`
		} `json:"options"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, core.ErrProtocol(core.CodeDefinitionFetch, "decoding ui definition").WithCause(err)
	}

	def := &core.UIDefinition{Name: wire.Name, Options: make([]core.ConfigOption, 0, len(wire.Options))}
	for _, o := range wire.Options {
		widget, werr := core.ParseWidget(o.Widget)
		if werr != nil {
			c.logger.Warn("unknown widget tag", "code", o.Code, "tag", o.Widget)
		}
		values := make([]core.OptionValue, 0, len(o.Values))
		for _, v := range o.Values {
			values = append(values, core.OptionValue{ValueString: v.ValueString, ValueNumeric: v.ValueNumeric})
		}
		def.Options = append(def.Options, core.ConfigOption{
			Order:        o.Order,
			Tab:          o.Tab,
			Section:      o.Section,
			Widget:       widget,
			Maker:        o.Maker,
			Code:         o.Code,
			Type:         o.Type,
			Description:  o.Description,
			ValueString:  o.ValueString,
			ValueNumeric: o.ValueNumeric,
			Hidden:       o.Hidden,
			Values:       values,
		})
	}
	return def, nil
}

// SetOption pushes one option value as a Model.SetOptionValue command.
func (c *Client) SetOption(ctx context.Context, modelGUID, code, value string) error {
	cmd := command.BuildSetOptionCommand(code, value, c.makerPrefix)
	raw, err := c.postCommand(ctx, modelGUID, cmd)
	if err != nil {
		return err
	}
	if result, ok := command.ParseCommandResult(raw); ok && strings.EqualFold(result, "error") {
		return core.ErrProtocol(core.CodeCommandRejected, "vendor rejected option command").
			WithDetail("code", code).WithDetail("value", value)
	}
	return nil
}

// GetDimensions fetches and parses the full dimension map.
func (c *Client) GetDimensions(ctx context.Context, modelGUID string) (core.Dimensions, error) {
	raw, err := c.postCommand(ctx, modelGUID, command.BuildGetDimensionsCommand())
	if err != nil {
		return nil, err
	}
	result, ok := command.ParseCommandResult(raw)
	if !ok {
		return nil, core.ErrProtocol(core.CodeMissingResult, "dimension command returned no result")
	}
	return core.ParseDimensionString(result), nil
}

// SetDimension sets one dimension and returns the authoritative post-cascade
// dimension map.
func (c *Client) SetDimension(ctx context.Context, modelGUID, key string, value float64) (core.Dimensions, error) {
	raw, err := c.postCommand(ctx, modelGUID, command.BuildSetDimensionCommand(key, value))
	if err != nil {
		return nil, err
	}
	result, ok := command.ParseCommandResult(raw)
	if !ok {
		return nil, core.ErrProtocol(core.CodeMissingResult, "dimension command returned no result")
	}
	return core.ParseDimensionString(result), nil
}

// RenderImage renders the current model state and decodes the payload per
// image type.
func (c *Client) RenderImage(ctx context.Context, modelGUID string, req core.ImageRequest) (*core.Image, error) {
	if !req.Type.Valid() {
		return nil, core.ErrValidation(core.CodeInvalidImageType, "unsupported image type").
			WithDetail("imageType", int(req.Type))
	}

	body, err := c.postJSON(ctx, "/models/"+modelGUID+"/images", req)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, core.ErrProtocol("IMAGE_DECODE_FAILED", "decoding image response").WithCause(err)
	}
	return decodeImagePayload(req.Type, payload.Data)
}

// postCommand posts an XML command to the model's command endpoint and
// returns the raw response text, which may be a JSON-quoted XML string.
func (c *Client) postCommand(ctx context.Context, modelGUID, cmd string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/models/"+modelGUID+"/commands", "application/xml", strings.NewReader(cmd))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, core.ErrValidation("ENCODE_FAILED", "encoding request payload").WithCause(err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(encoded))
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, core.ErrTransport("REQUEST_BUILD_FAILED", "building vendor request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, core.ErrTimeout("vendor request timed out")
		}
		return nil, core.ErrTransport("VENDOR_UNREACHABLE", "vendor request failed").WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.ErrTransport("READ_FAILED", "reading vendor response").WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return nil, core.ErrAuth("vendor rejected the bearer token")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, core.ErrTransport("VENDOR_STATUS",
			fmt.Sprintf("vendor returned status %d for %s %s", resp.StatusCode, method, path))
	}
	return data, nil
}
