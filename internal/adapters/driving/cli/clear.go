package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all indexed content",
	Long:  `Deletes every index run and its records. Settings are kept.`,
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if !clearYes {
		cmd.Print("Delete all indexed content? [y/N]: ")
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return errors.New("index service not configured")
	}

	if err := svc.Index.Clear(commandContext(cmd)); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
