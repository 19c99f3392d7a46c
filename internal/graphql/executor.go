package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"
)

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is a GraphQL-over-HTTP response body.
type Response struct {
	Data   map[string]any `json:"data"`
	Errors []*Error       `json:"errors,omitempty"`
}

// Error is a GraphQL error with the rate error fields under extensions.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Execute parses, validates and runs a query against the resolver. Only the
// query operation exists; the schema has no mutations.
func (r *Resolver) Execute(ctx context.Context, req Request) *Response {
	doc, errs := gqlparser.LoadQuery(Schema, req.Query)
	if len(errs) > 0 {
		resp := &Response{}
		for _, e := range errs {
			resp.Errors = append(resp.Errors, &Error{
				Message:    e.Message,
				Extensions: map[string]any{"code": "GRAPHQL_VALIDATION_FAILED"},
			})
		}
		return resp
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return errorResponse(fmt.Sprintf("operation %q not found", req.OperationName), "GRAPHQL_VALIDATION_FAILED")
	}

	vars, err := validator.VariableValues(Schema, op, req.Variables)
	if err != nil {
		return errorResponse(err.Error(), "BAD_USER_INPUT")
	}

	e := &execution{resolver: r, vars: vars, resp: &Response{Data: map[string]any{}}}
	for _, field := range collectFields(op.SelectionSet, vars) {
		e.resolveQueryField(ctx, field)
	}
	return e.resp
}

func errorResponse(msg, code string) *Response {
	return &Response{Errors: []*Error{{Message: msg, Extensions: map[string]any{"code": code}}}}
}

type execution struct {
	resolver *Resolver
	vars     map[string]any
	resp     *Response
}

func (e *execution) resolveQueryField(ctx context.Context, field *ast.Field) {
	key := responseKey(field)
	q := e.resolver.Query()

	var (
		value any
		err   error
	)
	switch field.Name {
	case "__typename":
		value = "Query"
	case "health":
		value, err = q.Health(ctx)
	case "carriers":
		value, err = q.Carriers(ctx)
	case "serviceLevels":
		value, err = q.ServiceLevels(ctx)
	case "rates":
		var input RateInput
		if err = decodeArgument(field.ArgumentMap(e.vars)["input"], &input); err != nil {
			e.addError(key, &Error{
				Message:    err.Error(),
				Extensions: map[string]any{"code": "BAD_USER_INPUT"},
			})
			return
		}
		var result *RatesResult
		result, err = q.Rates(ctx, input)
		if result != nil {
			value = result
		}
	default:
		err = fmt.Errorf("unknown field %q", field.Name)
	}

	if err != nil {
		info := DescribeError(err)
		ext := map[string]any{"code": info.Code, "retryable": info.Retryable}
		if info.Carrier != "" {
			ext["carrier"] = info.Carrier
		}
		e.addError(key, &Error{Message: info.Message, Extensions: ext})
		return
	}

	projected, perr := project(value, field.SelectionSet, e.vars)
	if perr != nil {
		e.addError(key, &Error{Message: "internal error", Extensions: map[string]any{"code": "INTERNAL"}})
		return
	}
	e.resp.Data[key] = projected
}

func (e *execution) addError(key string, gqlErr *Error) {
	gqlErr.Path = []any{key}
	e.resp.Errors = append(e.resp.Errors, gqlErr)
	e.resp.Data[key] = nil
}

// decodeArgument converts a coerced argument value into out.
func decodeArgument(raw any, out any) error {
	if raw == nil {
		return fmt.Errorf("argument input is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding argument: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding argument: %w", err)
	}
	return nil
}

// project renders value as JSON-compatible data restricted to the selection
// set. Leaf values pass through.
func project(value any, sel ast.SelectionSet, vars map[string]any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if len(sel) == 0 {
		return value, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return selectFields(generic, sel, typeName(value), vars), nil
}

func selectFields(value any, sel ast.SelectionSet, typename string, vars map[string]any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = selectFields(item, sel, typename, vars)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(sel))
		for _, field := range collectFields(sel, vars) {
			key := responseKey(field)
			if field.Name == "__typename" {
				out[key] = typename
				continue
			}
			child := v[field.Name]
			if len(field.SelectionSet) > 0 {
				child = selectFields(child, field.SelectionSet, childTypeName(field), vars)
			}
			out[key] = child
		}
		return out
	default:
		return v
	}
}

// collectFields flattens fragments into the fields they select, dropping
// selections excluded by @skip or @include.
func collectFields(sel ast.SelectionSet, vars map[string]any) []*ast.Field {
	var fields []*ast.Field
	for _, s := range sel {
		switch s := s.(type) {
		case *ast.Field:
			if included(s.Directives, vars) {
				fields = append(fields, s)
			}
		case *ast.InlineFragment:
			if included(s.Directives, vars) {
				fields = append(fields, collectFields(s.SelectionSet, vars)...)
			}
		case *ast.FragmentSpread:
			if s.Definition != nil && included(s.Directives, vars) {
				fields = append(fields, collectFields(s.Definition.SelectionSet, vars)...)
			}
		}
	}
	return fields
}

func included(directives ast.DirectiveList, vars map[string]any) bool {
	if d := directives.ForName("skip"); d != nil && directiveCondition(d, vars) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !directiveCondition(d, vars) {
		return false
	}
	return true
}

func directiveCondition(d *ast.Directive, vars map[string]any) bool {
	cond, _ := d.ArgumentMap(vars)["if"].(bool)
	return cond
}

func responseKey(field *ast.Field) string {
	if field.Alias != "" {
		return field.Alias
	}
	return field.Name
}

func typeName(value any) string {
	switch value.(type) {
	case *RatesResult:
		return "RatesResult"
	case []*Carrier:
		return "Carrier"
	default:
		return ""
	}
}

func childTypeName(field *ast.Field) string {
	if field.Definition == nil || field.Definition.Type == nil {
		return ""
	}
	return field.Definition.Type.Name()
}
