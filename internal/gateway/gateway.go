// Package gateway serves type info recordings of GraphQL operations over HTTP
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/language"
	"github.com/okra-platform/stitch/internal/typeinfo"
)

// QueryLoader parses and validates an operation document against a schema
type QueryLoader interface {
	LoadQuery(schema *ast.Schema, query string) (*language.Document, error)
}

type defaultQueryLoader struct{}

func (defaultQueryLoader) LoadQuery(schema *ast.Schema, query string) (*language.Document, error) {
	return language.LoadQuery(schema, query)
}

// Gateway provides HTTP access to the recorder for every configured namespace
type Gateway interface {
	// Handler returns the HTTP handler for /graphql/{namespace} and /health
	Handler() http.Handler

	// UpdateSchema adds a namespace or swaps its schema
	UpdateSchema(ctx context.Context, namespace string, schema *graph.Schema) error

	// RemoveNamespace stops serving a namespace
	RemoveNamespace(ctx context.Context, namespace string) error

	// Namespaces lists the namespaces currently served
	Namespaces() []string

	// Shutdown drops every namespace
	Shutdown(ctx context.Context) error
}

// Option configures a gateway
type Option func(*gateway)

// WithLogger sets the logger used for request failures and schema swaps
func WithLogger(logger zerolog.Logger) Option {
	return func(g *gateway) {
		g.logger = logger
	}
}

// WithRecorder sets the recorder used for every request
func WithRecorder(recorder *typeinfo.Recorder) Option {
	return func(g *gateway) {
		g.recorder = recorder
	}
}

// WithQueryLoader replaces query parsing and validation
func WithQueryLoader(loader QueryLoader) Option {
	return func(g *gateway) {
		g.loader = loader
	}
}

// New creates a gateway with no namespaces
func New(opts ...Option) Gateway {
	g := &gateway{
		namespaces: make(map[string]*namespaceHandler),
		logger:     zerolog.Nop(),
		loader:     defaultQueryLoader{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.recorder == nil {
		g.recorder = typeinfo.NewRecorder(typeinfo.WithLogger(g.logger))
	}
	return g
}

type gateway struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceHandler
	recorder   *typeinfo.Recorder
	loader     QueryLoader
	logger     zerolog.Logger
}

// namespaceHandler handles requests for a specific namespace
type namespaceHandler struct {
	namespace string
	schema    atomic.Pointer[graph.Schema]
	recorder  *typeinfo.Recorder
	loader    QueryLoader
	logger    zerolog.Logger
}

type graphqlRequest struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName,omitempty"`
}

type graphqlResponse struct {
	Data   *responseData  `json:"data,omitempty"`
	Errors []graphqlError `json:"errors,omitempty"`
}

type responseData struct {
	Records []typeinfo.RecordView `json:"records"`
}

type graphqlError struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (g *gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":     "ok",
			"namespaces": g.Namespaces(),
		})
	})

	// Handle /graphql/{namespace} pattern
	mux.HandleFunc("/graphql/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/graphql/")
		parts := strings.SplitN(path, "/", 2)
		if len(parts) == 0 || parts[0] == "" {
			http.Error(w, "namespace required", http.StatusBadRequest)
			return
		}

		namespace := parts[0]

		g.mu.RLock()
		handler, exists := g.namespaces[namespace]
		g.mu.RUnlock()

		if !exists {
			http.Error(w, fmt.Sprintf("namespace '%s' not found", namespace), http.StatusNotFound)
			return
		}

		handler.ServeHTTP(w, r)
	})

	return mux
}

func (g *gateway) UpdateSchema(ctx context.Context, namespace string, schema *graph.Schema) error {
	if schema == nil {
		return fmt.Errorf("schema for namespace '%s' is nil", namespace)
	}
	if namespace == "" {
		namespace = "default"
	}

	g.mu.Lock()
	handler, exists := g.namespaces[namespace]
	if !exists {
		handler = &namespaceHandler{
			namespace: namespace,
			recorder:  g.recorder,
			loader:    g.loader,
			logger:    g.logger.With().Str("namespace", namespace).Logger(),
		}
		g.namespaces[namespace] = handler
	}
	g.mu.Unlock()

	// Requests in flight keep the schema they loaded
	handler.schema.Store(schema)
	g.logger.Info().
		Str("namespace", namespace).
		Int("transformations", len(schema.Transformations())).
		Bool("replaced", exists).
		Msg("schema updated")
	return nil
}

func (g *gateway) RemoveNamespace(ctx context.Context, namespace string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.namespaces[namespace]; !ok {
		return fmt.Errorf("namespace '%s' not found", namespace)
	}
	delete(g.namespaces, namespace)
	return nil
}

func (g *gateway) Namespaces() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.namespaces))
	for name := range g.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for namespace := range g.namespaces {
		delete(g.namespaces, namespace)
	}
	return nil
}

// ServeHTTP records the posted operation against the namespace schema
func (h *namespaceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	schema := h.schema.Load()
	if schema == nil {
		http.Error(w, "Schema not initialized", http.StatusServiceUnavailable)
		return
	}

	records, err := h.record(schema, req)
	if err != nil {
		h.logger.Debug().Err(err).Str("operation", req.OperationName).Msg("request failed")
		h.sendErrorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&graphqlResponse{Data: &responseData{Records: records}})
}

func (h *namespaceHandler) record(schema *graph.Schema, req graphqlRequest) ([]typeinfo.RecordView, error) {
	doc, err := h.loader.LoadQuery(schema.Source(), req.Query)
	if err != nil {
		return nil, err
	}

	doc, err = selectOperation(doc, req.OperationName)
	if err != nil {
		return nil, err
	}

	annotated, table, err := typeinfo.Record(h.recorder, doc, schema, nil)
	if err != nil {
		return nil, err
	}
	return typeinfo.BuildReport(annotated, table)
}

// selectOperation narrows doc to the named operation and the fragments it may
// spread. Without a name the document must hold a single operation.
func selectOperation(doc *language.Document, name string) (*language.Document, error) {
	if name == "" {
		operations := 0
		for _, def := range doc.Definitions {
			if _, ok := def.(*language.OperationDefinition); ok {
				operations++
			}
		}
		if operations > 1 {
			return nil, fmt.Errorf("operationName is required when the query contains %d operations", operations)
		}
		return doc, nil
	}
	op, ok := doc.Operation(name)
	if !ok {
		return nil, fmt.Errorf("operation %q not found", name)
	}

	out := &language.Document{Loc: doc.Loc}
	for _, def := range doc.Definitions {
		switch def := def.(type) {
		case *language.OperationDefinition:
			if def == op {
				out.Definitions = append(out.Definitions, def)
			}
		case *language.FragmentDefinition:
			out.Definitions = append(out.Definitions, def)
		}
	}
	return out, nil
}

func (h *namespaceHandler) sendErrorResponse(w http.ResponseWriter, err error) {
	gqlErr := graphqlError{Message: err.Error()}

	var resolution *typeinfo.ResolutionError
	if errors.As(err, &resolution) {
		gqlErr.Path = resolution.Path
		gqlErr.Extensions = map[string]any{
			"code": "TYPE_INFO_UNRESOLVED",
			"kind": resolution.Kind.String(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // GraphQL errors are still 200 OK
	json.NewEncoder(w).Encode(&graphqlResponse{Errors: []graphqlError{gqlErr}})
}
