package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/infra/logger"
)

var forecastStart string

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print the seven day demand/capacity forecast",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&forecastStart, "start", "", "week start date (YYYY-MM-DD)")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	start, err := model.ParseDate(forecastStart)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("forecast-command").Errorf("service close: %v", err)
		}
	}()

	week, err := svc.Forecaster.Forecast(context.Background(), start)
	if err != nil {
		return err
	}
	for _, day := range week.Days {
		fmt.Printf("%s (%s): demand=%dmin capacity=%dmin status=%s\n",
			model.DateKey(day.Date), day.DayName, day.DemandMins, day.CapacityMins, day.Status)
	}
	fmt.Printf("mean utilization %.2f (stddev %.2f), %d understaffed days\n",
		week.Summary.MeanUtilization, week.Summary.StddevUtilization, week.Summary.UnderstaffedDays)
	return nil
}
