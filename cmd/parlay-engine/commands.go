package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/service"
)

var (
	flagSports        []string
	flagSport         string
	flagLegs          int
	flagRisk          string
	flagBalance       bool
	flagProps         bool
	flagMinConfidence float64
	flagMaxLegs       int
	flagPeriod        int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble and persist one wager bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		sports, err := parseSports(flagSports)
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) (any, error) {
			return a.engine.BuildWagerBundle(cmd.Context(), service.BundleRequest{
				LegCount:            flagLegs,
				Sports:              sports,
				RiskProfile:         models.RiskProfile(flagRisk),
				BalanceAcrossSports: flagBalance,
				IncludeProps:        flagProps,
			})
		})
	},
}

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Build the safe, balanced and degen tiers from shared candidate pools",
	RunE: func(cmd *cobra.Command, args []string) error {
		sports, err := parseSports(flagSports)
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) (any, error) {
			set, err := a.engine.BuildTiers(cmd.Context(), sports, flagProps)
			if err != nil {
				return nil, err
			}
			for _, tier := range set.Tiers {
				if tier.Err != nil {
					appLog.WithError(tier.Err).WithField("tier", tier.Spec.Name).Warn("Tier not built")
				}
			}
			return set, nil
		})
	},
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List confidence-ranked candidate legs for one sport",
	RunE: func(cmd *cobra.Command, args []string) error {
		sport, ok := models.ParseSport(flagSport)
		if !ok {
			return fmt.Errorf("unknown sport %q", flagSport)
		}
		req := service.CandidateRequest{
			Sport:         sport,
			MinConfidence: flagMinConfidence,
			MaxLegs:       flagMaxLegs,
			IncludeProps:  flagProps,
		}
		if flagPeriod > 0 {
			req.Period = &flagPeriod
		}
		return withApp(cmd, func(a *app) (any, error) {
			return a.engine.GetCandidateLegs(cmd.Context(), req)
		})
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle <matchup-id>",
	Short: "Settle every open leg on a finished matchup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid matchup id: %w", err)
		}
		return withApp(cmd, func(a *app) (any, error) {
			n, err := a.engine.SettleMatchup(cmd.Context(), id)
			return map[string]any{"matchup_id": id, "legs_settled": n}, err
		})
	},
}

var liveCmd = &cobra.Command{
	Use:   "live <matchup-id>",
	Short: "Mark pending legs on a matchup as live",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid matchup id: %w", err)
		}
		return withApp(cmd, func(a *app) (any, error) {
			n, err := a.engine.MarkMatchupLive(cmd.Context(), id)
			return map[string]any{"matchup_id": id, "legs_live": n}, err
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-derive the status of every open bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) (any, error) {
			return a.engine.SweepBundleStatuses(cmd.Context())
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{buildCmd, tiersCmd} {
		cmd.Flags().StringSliceVar(&flagSports, "sports", nil, "Comma separated sport codes (e.g. nfl,nba)")
		_ = cmd.MarkFlagRequired("sports")
	}
	for _, cmd := range []*cobra.Command{buildCmd, tiersCmd, candidatesCmd} {
		cmd.Flags().BoolVar(&flagProps, "props", false, "Include player prop markets")
	}

	buildCmd.Flags().IntVar(&flagLegs, "legs", 3, "Number of legs")
	buildCmd.Flags().StringVar(&flagRisk, "risk", string(models.RiskBalanced), "Risk profile: conservative, balanced or degen")
	buildCmd.Flags().BoolVar(&flagBalance, "balance", false, "Spread legs evenly across sports")

	candidatesCmd.Flags().StringVar(&flagSport, "sport", "", "Sport code")
	candidatesCmd.Flags().Float64Var(&flagMinConfidence, "min-confidence", 0, "Minimum confidence (0-100)")
	candidatesCmd.Flags().IntVar(&flagMaxLegs, "max-legs", 50, "Maximum legs returned")
	candidatesCmd.Flags().IntVar(&flagPeriod, "period", 0, "Restrict to a week or round")
	_ = candidatesCmd.MarkFlagRequired("sport")
}

// withApp wires the engine, runs fn and prints its result as JSON.
func withApp(cmd *cobra.Command, fn func(a *app) (any, error)) error {
	if flagProps && !cfg.Features.PlayerPropsEnabled {
		return fmt.Errorf("player props are disabled (features.player_props_enabled)")
	}

	a, err := newApp(cmd.Context(), cfg, appLog)
	if err != nil {
		return err
	}
	defer a.close()

	out, err := fn(a)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseSports(codes []string) ([]models.Sport, error) {
	sports := make([]models.Sport, 0, len(codes))
	for _, code := range codes {
		sport, ok := models.ParseSport(code)
		if !ok {
			return nil, fmt.Errorf("unknown sport %q", code)
		}
		sports = append(sports, sport)
	}
	return sports, nil
}
