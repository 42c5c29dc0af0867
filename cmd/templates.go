package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kayz/biometrics/internal/templates"
	"github.com/kayz/biometrics/internal/ui"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Show the built-in agent and task templates",
}

var templatesAgentsCmd = &cobra.Command{
	Use:   "agents [name]",
	Short: "List template agents or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.New(cmd.OutOrStdout())
		if len(args) == 1 {
			a, ok := templates.Agent(args[0])
			if !ok {
				return fmt.Errorf("unknown agent %q", args[0])
			}
			p.Heading(a.Name)
			p.Plain("   %s", a.Description)
			p.Plain("   model:        %s", a.Model)
			p.Plain("   capabilities: %s", strings.Join(a.Capabilities, ", "))
			if a.Instructions != "" {
				p.Plain("   %s", ui.Muted(a.Instructions))
			}
			return nil
		}
		p.Heading("Agents:")
		for _, a := range templates.Agents() {
			p.Plain("   %-11s %-28s %s", a.Key, a.Model, ui.Muted(a.Description))
		}
		return nil
	},
}

var templatesTasksCmd = &cobra.Command{
	Use:   "tasks [id]",
	Short: "List template tasks or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.New(cmd.OutOrStdout())
		if len(args) == 1 {
			t, ok := templates.Task(args[0])
			if !ok {
				return fmt.Errorf("unknown task %q", args[0])
			}
			p.Heading(t.Name)
			p.Plain("   %s", t.Description)
			p.Plain("   agent: %s", t.Agent)
			for _, k := range templates.Fields(t.Input) {
				p.Plain("   in  %-14s %s", k, t.Input[k])
			}
			for _, k := range templates.Fields(t.Output) {
				p.Plain("   out %-14s %s", k, t.Output[k])
			}
			return nil
		}
		p.Heading("Tasks:")
		for _, t := range templates.Tasks() {
			p.Plain("   %-14s %-11s %s", t.ID, t.Agent, ui.Muted(t.Description))
		}
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesAgentsCmd, templatesTasksCmd)
	rootCmd.AddCommand(templatesCmd)
}
