// Package api provides the gRPC rule evaluation service.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/predicates/internal/core/config"
	"github.com/solatis/predicates/internal/core/logging"
	"github.com/solatis/predicates/internal/rules"
	"github.com/solatis/predicates/internal/types"
)

// RuleSource supplies bound rules for ReloadRules.
// Implemented by *db.Store.
type RuleSource interface {
	NamedRules(ctx context.Context) ([]*rules.NamedRule, error)
}

// RuleService implements RuleServiceServer.
// Thin orchestration layer delegating to the rules engine and rule source.
type RuleService struct {
	engine *rules.Engine
	source RuleSource
	cfg    *config.ServerConfig
}

// NewRuleService creates service instance with dependencies.
// source may be nil, in which case ReloadRules is unavailable.
func NewRuleService(engine *rules.Engine, source RuleSource, cfg *config.ServerConfig) (*RuleService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	return &RuleService{
		engine: engine,
		source: source,
		cfg:    cfg,
	}, nil
}

// Reload replaces the engine's rules with the current contents of the rule
// source. Returns the number of rules loaded.
func (s *RuleService) Reload(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, fmt.Errorf("no rule source configured")
	}
	named, err := s.source.NamedRules(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.engine.Replace(named); err != nil {
		return 0, err
	}
	return len(named), nil
}

// Evaluate tests one named rule against the request document.
func (s *RuleService) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := req.GetFields()["rule"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "rule name is required")
	}
	doc, err := s.document(req)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Evaluate(name, doc)
	if err != nil {
		return nil, toStatus(err)
	}
	logging.FromContext(ctx).Debug("rule evaluated",
		slog.String("rule", name),
		slog.Bool("matched", result.Matched))

	return structpb.NewStruct(resultFields(result))
}

// EvaluateAll tests every loaded rule against the request document.
func (s *RuleService) EvaluateAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := s.document(req)
	if err != nil {
		return nil, err
	}

	results, err := s.engine.EvaluateAll(doc)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(results))
	for _, r := range results {
		items = append(items, resultFields(r))
	}
	return structpb.NewStruct(map[string]any{"results": items})
}

// Test binds an inline rule definition and tests it against the request
// document under the engine's error policy.
func (s *RuleService) Test(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	definition := req.GetFields()["definition"].GetStructValue()
	if definition == nil {
		return nil, status.Error(codes.InvalidArgument, "definition is required")
	}
	doc, err := s.document(req)
	if err != nil {
		return nil, err
	}

	container, err := rules.Bind(definition.AsMap())
	if err != nil {
		return nil, toStatus(err)
	}

	result, err := rules.Evaluate(&rules.NamedRule{Name: "inline", Container: container}, doc, s.engine.Policy())
	if err != nil {
		return nil, toStatus(err)
	}

	fields := map[string]any{"matched": result.Matched}
	if result.Err != nil {
		fields["error"] = result.Err.Error()
	}
	return structpb.NewStruct(fields)
}

// ListRules returns the names of the loaded rules.
func (s *RuleService) ListRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	names := s.engine.Names()
	items := make([]any, len(names))
	for i, name := range names {
		items[i] = name
	}
	return structpb.NewStruct(map[string]any{"rules": items})
}

// ReloadRules reloads the engine from the rule source.
func (s *RuleService) ReloadRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.source == nil {
		return nil, status.Error(codes.FailedPrecondition, "no rule source configured")
	}
	count, err := s.Reload(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"count": count})
}

// document extracts and size-checks the request document.
// A missing document is an empty mapping.
func (s *RuleService) document(req *structpb.Struct) (any, error) {
	value, ok := req.GetFields()["document"]
	if !ok {
		return map[string]any{}, nil
	}
	if size := proto.Size(value); size > s.cfg.MaxDocumentSize {
		return nil, toStatus(fmt.Errorf("%w: %d bytes (max %d)", types.ErrDocumentTooLarge, size, s.cfg.MaxDocumentSize))
	}
	return value.AsInterface(), nil
}

// resultFields renders a MatchResult as Struct fields.
func resultFields(r rules.MatchResult) map[string]any {
	fields := map[string]any{
		"rule":    r.RuleName,
		"matched": r.Matched,
	}
	if r.RuleID != "" {
		fields["rule_id"] = string(r.RuleID)
	}
	if r.Err != nil {
		fields["error"] = r.Err.Error()
	}
	return fields
}
