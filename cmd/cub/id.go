package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cub/internal/ident"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Parse and derive identifiers without touching the counters",
}

var idParseCmd = &cobra.Command{
	Use:   "parse <identifier>",
	Short: "Decompose an identifier into its hierarchy levels",
	Long: `Parse an identifier and print its components, one per line.

Examples:
  cub id parse cub-054A-0.1
  cub id parse cub-s007`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := ident.Parse(args[0])
		if err != nil {
			fatal("%v", err)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		if p.Standalone {
			fmt.Printf("kind:       %s\n", cyan("standalone task"))
			fmt.Printf("project:    %s\n", p.Spec.Project)
			fmt.Printf("number:     %d\n", p.Spec.Number)
			return
		}

		fmt.Printf("kind:       %s\n", cyan(kindOf(p)))
		fmt.Printf("project:    %s\n", p.Spec.Project)
		fmt.Printf("spec:       %s\n", p.Spec.String())
		if p.Plan != 0 {
			fmt.Printf("plan:       %s\n", string(p.Plan))
		}
		if p.Epic != 0 {
			fmt.Printf("epic:       %s\n", string(p.Epic))
		}
		for i, n := range p.Nums {
			label := "task:"
			if i == 1 {
				label = "subtask:"
			}
			fmt.Printf("%-11s %d\n", label, n)
		}
	},
}

var idParentCmd = &cobra.Command{
	Use:   "parent <identifier>",
	Short: "Print the immediate parent identifier",
	Long: `Print the immediate parent of an identifier: a task's epic, an epic's
plan, a plan's spec. Specifications and standalone tasks have no parent;
nothing is printed for them.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parent, err := ident.Parent(args[0])
		if err != nil {
			fatal("%v", err)
		}
		if parent != "" {
			fmt.Println(parent)
		}
	},
}

var idNextLetterCmd = &cobra.Command{
	Use:   "next-letter [used]",
	Short: "Print the next free plan letter",
	Long: `Print the next free plan letter given the letters already in use,
passed as a single string. Letters allocate in the order A-Z, a-z, 0-9.

Examples:
  cub id next-letter        # A
  cub id next-letter ABC    # D`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var used []byte
		if len(args) > 0 {
			used = []byte(args[0])
		}
		letter, err := ident.NextPlanLetter(used)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Println(string(letter))
	},
}

var idNextCharCmd = &cobra.Command{
	Use:   "next-char [used]",
	Short: "Print the next free epic char",
	Long: `Print the next free epic char given the chars already in use, passed as
a single string. Chars allocate in the order 0-9, a-z, A-Z.

Examples:
  cub id next-char        # 0
  cub id next-char 012    # 3`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var used []byte
		if len(args) > 0 {
			used = []byte(args[0])
		}
		char, err := ident.NextEpicChar(used)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Println(string(char))
	},
}

func init() {
	idCmd.AddCommand(idParseCmd)
	idCmd.AddCommand(idParentCmd)
	idCmd.AddCommand(idNextLetterCmd)
	idCmd.AddCommand(idNextCharCmd)
	rootCmd.AddCommand(idCmd)
}

func kindOf(p ident.Parsed) string {
	switch {
	case len(p.Nums) == 2:
		return "subtask"
	case len(p.Nums) == 1:
		return "task"
	case p.Epic != 0:
		return "epic"
	case p.Plan != 0:
		return "plan"
	default:
		return "specification"
	}
}
