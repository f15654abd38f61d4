package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driving"
	"github.com/custodia-labs/jobber-cli/internal/logger"
)

// introspectionQuery is the standard GraphQL introspection query, pared
// down to types, fields, and descriptions. Jobber's schema is large;
// we skip directives and deprecation metadata we never use.
const introspectionQuery = `
	query IntrospectionQuery {
		__schema {
			queryType { name }
			mutationType { name }
			types {
				kind
				name
				description
				fields(includeDeprecated: false) {
					name
					description
					type {
						kind
						name
						ofType { kind name ofType { kind name } }
					}
				}
			}
		}
	}
`

// Ensure Introspector implements the driving interface.
var _ driving.IntrospectionService = (*Introspector)(nil)

// Introspector fetches the Jobber GraphQL schema and caches it through
// a SchemaStore so repeat lookups skip the expensive introspection
// round trip.
type Introspector struct {
	graphql driving.GraphQLService
	store   driven.SchemaStore
}

// NewIntrospector creates an introspector backed by the given cache.
func NewIntrospector(graphql driving.GraphQLService, store driven.SchemaStore) *Introspector {
	return &Introspector{graphql: graphql, store: store}
}

// Schema returns the introspected schema as the decoded __schema map.
// With useCache, a cached copy is served without touching the API; a
// cache miss or decode failure falls through to a fresh fetch.
func (s *Introspector) Schema(ctx context.Context, useCache bool) (map[string]any, error) {
	if useCache && s.store != nil {
		payload, fetchedAt, err := s.store.Get(ctx)
		switch {
		case err == nil:
			var schema map[string]any
			if uerr := json.Unmarshal(payload, &schema); uerr == nil {
				logger.Debug("serving schema cached at %s", fetchedAt.Format(time.RFC3339))
				return schema, nil
			}
			logger.Warn("cached schema is corrupt, refetching")
		case errors.Is(err, domain.ErrSchemaNotCached):
			logger.Debug("no cached schema, fetching")
		default:
			return nil, fmt.Errorf("read schema cache: %w", err)
		}
	}

	schema, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		payload, merr := json.Marshal(schema)
		if merr == nil {
			merr = s.store.Put(ctx, payload)
		}
		if merr != nil {
			// Cache write failures must not fail the lookup.
			logger.Error("failed to cache schema: %v", merr)
		}
	}
	return schema, nil
}

// FieldDescriptions returns field name -> description for the named
// type. Fields without a description map to the empty string.
func (s *Introspector) FieldDescriptions(ctx context.Context, typeName string) (map[string]string, error) {
	if typeName == "" {
		return nil, fmt.Errorf("%w: empty type name", domain.ErrInvalidInput)
	}

	schema, err := s.Schema(ctx, true)
	if err != nil {
		return nil, err
	}

	typ := findType(schema, typeName)
	if typ == nil {
		return nil, fmt.Errorf("%w: type %q not found in schema", domain.ErrInvalidInput, typeName)
	}

	descriptions := make(map[string]string)
	fields, _ := typ["fields"].([]any)
	for _, f := range fields {
		field, ok := f.(map[string]any)
		if !ok {
			continue
		}
		name, _ := field["name"].(string)
		if name == "" {
			continue
		}
		desc, _ := field["description"].(string)
		descriptions[name] = desc
	}
	return descriptions, nil
}

// Diff fetches a fresh schema and compares it against the cached one.
// The fresh schema replaces the cache afterwards.
func (s *Introspector) Diff(ctx context.Context) (domain.SchemaDiff, error) {
	if s.store == nil {
		return domain.SchemaDiff{}, fmt.Errorf("%w: no schema cache configured", domain.ErrInvalidInput)
	}

	payload, _, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaNotCached) {
			return domain.SchemaDiff{}, fmt.Errorf("%w: nothing to diff against", err)
		}
		return domain.SchemaDiff{}, fmt.Errorf("read schema cache: %w", err)
	}
	var old map[string]any
	if err := json.Unmarshal(payload, &old); err != nil {
		return domain.SchemaDiff{}, fmt.Errorf("decode cached schema: %w", err)
	}

	fresh, err := s.fetch(ctx)
	if err != nil {
		return domain.SchemaDiff{}, err
	}

	diff := diffSchemas(old, fresh)

	if raw, merr := json.Marshal(fresh); merr == nil {
		if perr := s.store.Put(ctx, raw); perr != nil {
			logger.Error("failed to cache schema after diff: %v", perr)
		}
	}
	return diff, nil
}

// ClearCache removes the cached schema.
func (s *Introspector) ClearCache(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	return s.store.Clear(ctx)
}

// fetch runs the introspection query and returns the __schema map.
func (s *Introspector) fetch(ctx context.Context) (map[string]any, error) {
	data, err := s.graphql.Execute(ctx, introspectionQuery, nil, "IntrospectionQuery")
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}
	schema, ok := data["__schema"].(map[string]any)
	if !ok {
		return nil, &domain.GraphQLError{
			Message: "introspection response missing __schema",
		}
	}
	return schema, nil
}

// findType returns the type map with the given name, or nil.
func findType(schema map[string]any, typeName string) map[string]any {
	types, _ := schema["types"].([]any)
	for _, t := range types {
		typ, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := typ["name"].(string); strings.EqualFold(name, typeName) {
			return typ
		}
	}
	return nil
}

// typeFields extracts type name -> sorted field names, skipping GraphQL
// built-ins (names starting with "__").
func typeFields(schema map[string]any) map[string][]string {
	out := make(map[string][]string)
	types, _ := schema["types"].([]any)
	for _, t := range types {
		typ, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := typ["name"].(string)
		if name == "" || strings.HasPrefix(name, "__") {
			continue
		}
		var fieldNames []string
		fields, _ := typ["fields"].([]any)
		for _, f := range fields {
			field, ok := f.(map[string]any)
			if !ok {
				continue
			}
			if fn, _ := field["name"].(string); fn != "" {
				fieldNames = append(fieldNames, fn)
			}
		}
		sort.Strings(fieldNames)
		out[name] = fieldNames
	}
	return out
}

// diffSchemas computes added/removed types and fields between two
// introspected schemas.
func diffSchemas(old, fresh map[string]any) domain.SchemaDiff {
	oldTypes := typeFields(old)
	newTypes := typeFields(fresh)

	diff := domain.SchemaDiff{
		AddedFields:   make(map[string][]string),
		RemovedFields: make(map[string][]string),
	}

	for name, newFields := range newTypes {
		oldFields, existed := oldTypes[name]
		if !existed {
			diff.AddedTypes = append(diff.AddedTypes, name)
			continue
		}
		added, removed := diffStrings(oldFields, newFields)
		if len(added) > 0 {
			diff.AddedFields[name] = added
		}
		if len(removed) > 0 {
			diff.RemovedFields[name] = removed
		}
	}
	for name := range oldTypes {
		if _, exists := newTypes[name]; !exists {
			diff.RemovedTypes = append(diff.RemovedTypes, name)
		}
	}

	sort.Strings(diff.AddedTypes)
	sort.Strings(diff.RemovedTypes)
	return diff
}

// diffStrings returns elements only in b (added) and only in a (removed).
// Inputs must be sorted; outputs are sorted.
func diffStrings(a, b []string) (added, removed []string) {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
		if !inA[s] {
			added = append(added, s)
		}
	}
	for _, s := range a {
		if !inB[s] {
			removed = append(removed, s)
		}
	}
	return added, removed
}
