package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"contact-sync/core/record"
	"contact-sync/feature/contacts"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var diffFamily string

// diffCmd prints the change set between two record files.
var diffCmd = &cobra.Command{
	Use:   "diff <source> <target>",
	Short: "Print the change set turning one record file into another",
	Long: `Compare two records stored as YAML or JSON files and print the field-level
change set, one operation per line (~ replace, + add, - delete).
Runs offline: no database or bucket is needed.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffFamily, "family", contacts.FamilyContacts, "Record family (contacts or groups)")
	diffCmd.Flags().Bool("json", false, "Print the change set as JSON")
	RootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	source, err := readRecordFile(args[0])
	if err != nil {
		return err
	}
	target, err := readRecordFile(args[1])
	if err != nil {
		return err
	}

	families, err := contacts.Families(contacts.DefaultRefSource)
	if err != nil {
		return err
	}
	var reg *record.Registry
	for _, f := range families {
		if f.Name == diffFamily {
			reg = f.Registry
		}
	}
	if reg == nil {
		return fmt.Errorf("%w: %s", contacts.ErrUnknownFamily, diffFamily)
	}

	cs, err := contacts.Diff(reg, source, target)
	if err != nil {
		return fmt.Errorf("failed to diff: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cs)
	}
	for _, op := range cs {
		fmt.Fprintln(out, op.String())
	}
	return nil
}

// readRecordFile decodes one record. YAML is a superset of JSON, so both parse.
func readRecordFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var rec map[string]any
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rec, nil
}
