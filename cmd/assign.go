package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasmnd/hkroster/infra/logger"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Run the daily room dispatch once and print the summary",
	RunE:  runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("assign-command").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.AssignDaily(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("run %s: assigned=%d unassigned=%d reassigned=%d called_in=%d\n",
		res.RunID, res.Assigned, res.Unassigned, res.Reassigned, res.CalledIn)
	return nil
}
