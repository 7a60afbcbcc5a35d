package main

import "github.com/spf13/cobra"

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective triage rules as YAML",
	Long: `Print the effective rules (built-in defaults merged with --rules or RULES_FILE).
The output is itself a valid rules file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return env.rules.WriteYAML(cmd.OutOrStdout())
	},
}
