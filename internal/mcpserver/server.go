package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workbridge/internal/config"
	"workbridge/internal/shape"
	"workbridge/internal/tools"
)

// Server dispatches JSON-RPC requests from a reader to a tool registry and
// writes responses to a writer, one frame per line.
type Server struct {
	name     string
	version  string
	registry *tools.Registry
	limits   func() config.Limits
	log      *zap.Logger

	writeMu sync.Mutex
	out     *bufio.Writer
}

// New builds a server over the given registry. limits is read per call so a
// live config watcher can feed updated budgets.
func New(name, version string, reg *tools.Registry, limits func() config.Limits, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if limits == nil {
		def := config.DefaultLimits()
		limits = func() config.Limits { return def }
	}
	return &Server{
		name:     name,
		version:  version,
		registry: reg,
		limits:   limits,
		log:      log,
	}
}

// Run reads newline-delimited requests from r until EOF or ctx cancellation.
// Each request is handled on its own goroutine; responses may interleave in
// any order, each as a single atomic line.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = bufio.NewWriter(w)

	lines := make(chan []byte)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return scanner.Err()
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if len(line) == 0 {
					continue
				}
				msg := line
				g.Go(func() error {
					s.handleLine(ctx, msg)
					return nil
				})
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.writeError(nil, codeParseError, "parse error: "+err.Error())
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeError(req.ID, codeInvalidRequest, "invalid request")
		return
	}

	s.log.Debug("request", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		s.writeResult(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
		})
	case "notifications/initialized":
		// Notification, nothing to answer.
	case "ping":
		s.writeResult(req.ID, map[string]any{})
	case "tools/list":
		s.writeResult(req.ID, map[string]any{"tools": s.registry.Descriptors()})
	case "tools/call":
		s.handleCall(ctx, &req)
	default:
		if req.isNotification() {
			return
		}
		s.writeError(req.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleCall(ctx context.Context, req *request) {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, codeInvalidParams, "invalid tools/call params: "+err.Error())
		return
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	result, err := s.registry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		s.writeCallError(req.ID, params.Name, err)
		return
	}

	text, err := encodeResult(result, s.limits().MaxTextSize)
	if err != nil {
		s.writeError(req.ID, codeInternalError, "encoding result: "+err.Error())
		return
	}
	s.writeResult(req.ID, callResult{
		Content: []contentBlock{{Type: "text", Text: text}},
	})
}

// writeCallError maps the tool error taxonomy onto JSON-RPC codes: caller
// mistakes are invalid params, upstream and unexpected failures are internal.
func (s *Server) writeCallError(id *json.RawMessage, name string, err error) {
	switch {
	case errors.Is(err, tools.ErrToolNotFound):
		s.writeError(id, codeInvalidParams, fmt.Sprintf("unknown tool: %s", name))
	case tools.IsValidation(err):
		s.writeError(id, codeInvalidParams, err.Error())
	case tools.IsUpstream(err):
		s.log.Warn("upstream failure", zap.String("tool", name), zap.Error(err))
		s.writeError(id, codeInternalError, err.Error())
	default:
		s.log.Error("tool failed", zap.String("tool", name), zap.Error(err))
		s.writeError(id, codeInternalError, err.Error())
	}
}

// encodeResult renders the tool output as indented JSON bounded by the text
// budget. Strings pass through unwrapped so plain-text results stay readable.
func encodeResult(result any, budget int) (string, error) {
	var text string
	switch v := result.(type) {
	case string:
		text = v
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		text = string(data)
	}

	bounded, report := shape.BoundText(text, budget, "result")
	if report != nil {
		wrapped, err := json.MarshalIndent(map[string]any{
			"result":     bounded,
			"truncation": report,
		}, "", "  ")
		if err != nil {
			return "", err
		}
		return string(wrapped), nil
	}
	return bounded, nil
}

func (s *Server) writeResult(id *json.RawMessage, result any) {
	s.writeFrame(response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id *json.RawMessage, code int, message string) {
	s.writeFrame(response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (s *Server) writeFrame(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshaling response frame", zap.Error(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.log.Error("writing response frame", zap.Error(err))
		return
	}
	if err := s.out.Flush(); err != nil {
		s.log.Error("flushing response frame", zap.Error(err))
	}
}
