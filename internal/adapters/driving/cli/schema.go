package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the Jobber GraphQL schema",
	Long: `Fetch, cache, and inspect the Jobber GraphQL schema.

Introspection is an expensive query, so the schema is cached on disk
and reused until you refetch or clear it.`,
}

var schemaFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the schema and update the cache",
	RunE:  runSchemaFetch,
}

var schemaFieldsCmd = &cobra.Command{
	Use:   "fields <type>",
	Short: "List the fields of a schema type with descriptions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaFields,
}

var schemaDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the cached schema against a fresh introspection",
	RunE:  runSchemaDiff,
}

var schemaClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the cached schema",
	RunE:  runSchemaClear,
}

func init() {
	schemaCmd.AddCommand(schemaFetchCmd)
	schemaCmd.AddCommand(schemaFieldsCmd)
	schemaCmd.AddCommand(schemaDiffCmd)
	schemaCmd.AddCommand(schemaClearCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaFetch(cmd *cobra.Command, _ []string) error {
	introspector, err := getIntrospector(cmd.Context())
	if err != nil {
		return err
	}

	schema, err := introspector.Schema(cmd.Context(), false)
	if err != nil {
		return err
	}

	types, _ := schema["types"].([]any)
	cmd.Printf("Fetched schema: %d types cached.\n", len(types))
	return nil
}

func runSchemaFields(cmd *cobra.Command, args []string) error {
	introspector, err := getIntrospector(cmd.Context())
	if err != nil {
		return err
	}

	fields, err := introspector.FieldDescriptions(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if desc := fields[name]; desc != "" {
			cmd.Printf("%s\t%s\n", name, desc)
		} else {
			cmd.Println(name)
		}
	}
	return nil
}

func runSchemaDiff(cmd *cobra.Command, _ []string) error {
	introspector, err := getIntrospector(cmd.Context())
	if err != nil {
		return err
	}

	diff, err := introspector.Diff(cmd.Context())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(diff, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding diff: %w", err)
	}
	cmd.Println(string(out))

	if diff.Breaking() {
		cmd.Println("\nWARNING: the new schema removes types or fields.")
	}
	return nil
}

func runSchemaClear(cmd *cobra.Command, _ []string) error {
	introspector, err := getIntrospector(cmd.Context())
	if err != nil {
		return err
	}

	removed, err := introspector.ClearCache(cmd.Context())
	if err != nil {
		return err
	}

	if removed {
		cmd.Println("Schema cache cleared.")
	} else {
		cmd.Println("Schema cache was already empty.")
	}
	return nil
}
