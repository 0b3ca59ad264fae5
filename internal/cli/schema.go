package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	bridge "vintageshock/bridge"
)

var schemaOutPath string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Emit a JSON schema for the settings document",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := buildSettingsSchema()
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal schema: %w", err)
		}
		data = append(data, '\n')

		if schemaOutPath == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(schemaOutPath), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(schemaOutPath, data, 0o644); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaOutPath, "out", "", "output path for the JSON schema (default stdout)")
}

func buildSettingsSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := reflector.ReflectFromType(reflect.TypeOf(bridge.Settings{}))
	if schema == nil {
		return nil, fmt.Errorf("failed to reflect settings schema")
	}
	schema.Version = ""
	schema.Title = "ShockBridge Settings"
	schema.Description = "Operator-authored settings consumed at startup and on explicit reload."
	return schema, nil
}
