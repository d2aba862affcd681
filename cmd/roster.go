package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/infra/logger"
)

var rosterStart string

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Generate the weekly roster for a start date",
	RunE:  runRoster,
}

func init() {
	rosterCmd.Flags().StringVar(&rosterStart, "start", "", "week start date (YYYY-MM-DD)")
	rootCmd.AddCommand(rosterCmd)
}

func runRoster(cmd *cobra.Command, args []string) error {
	start, err := model.ParseDate(rosterStart)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("roster-command").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Generate(context.Background(), start)
	if err != nil {
		return err
	}
	fmt.Printf("generated %d shifts for week of %s\n", len(res.Shifts), model.DateKey(res.Start))
	for _, a := range res.Alerts {
		fmt.Println("alert:", a)
	}
	return nil
}
