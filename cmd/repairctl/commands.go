package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/diewo77/go-repairs/internal/db"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type envOpener func(ctx context.Context) (*appEnv, error)

func newRootCmd(open envOpener) *cobra.Command {
	root := &cobra.Command{
		Use:          "repairctl",
		Short:        "Operate the repair tracking service",
		SilenceUsage: true,
	}

	// withEnv opens the environment for one command run.
	withEnv := func(run func(cmd *cobra.Command, env *appEnv, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()
			return run(cmd, env, args)
		}
	}

	root.AddCommand(
		newMigrateCmd(withEnv),
		newSeedDemoCmd(withEnv),
		newEstablishmentsCmd(withEnv),
		newRepairsCmd(withEnv),
		newTrackCmd(withEnv),
	)
	return root
}

type runWrapper func(func(*cobra.Command, *appEnv, []string) error) func(*cobra.Command, []string) error

func newMigrateCmd(withEnv runWrapper) *cobra.Command {
	var sqlMigrations bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, env *appEnv, _ []string) error {
			if err := db.Migrate(env.db, env.cfg.Database, sqlMigrations, env.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&sqlMigrations, "sql", true, "apply the SQL migrations (postgres) instead of AutoMigrate")
	return cmd
}

const demoEmail = "demo@repairs.local"

// demoRepairs covers every step of the timeline plus a cancellation.
var demoRepairs = []struct {
	item, description string
	price             float64
	status            models.RepairStatus
}{
	{"iPhone 12", "Cracked screen", 89.9, models.StatusNew},
	{"MacBook Air M1", "Does not boot", 0, models.StatusDiagnostic},
	{"Samsung Galaxy S21", "Battery swells", 59, models.StatusInRepair},
	{"Nintendo Switch", "Joy-Con drift", 35, models.StatusReady},
	{"iPad 9", "Charging port", 49, models.StatusCollected},
	{"Pixel 7", "Water damage", 0, models.StatusCancelled},
}

func newSeedDemoCmd(withEnv runWrapper) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Create a demo shop with repairs in every status",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, env *appEnv, _ []string) error {
			ctx := cmd.Context()
			user, est, err := env.accounts.Register(ctx, services.SignupInput{
				Email:    demoEmail,
				Password: password,
				Name:     "Demo",
				ShopName: "Demo Repair Shop",
				Phone:    "01 23 45 67 89",
				Address:  "1 place de la Réparation, Paris",
			})
			if errors.Is(err, models.ErrConflict) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, nothing to do\n", demoEmail)
				return nil
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range demoRepairs {
				in := services.CreateRepairInput{Item: d.item, Description: d.description}
				if d.price > 0 {
					price := d.price
					in.Price = &price
				}
				r, err := env.repairs.CreateForEstablishment(ctx, est.ID, in)
				if err != nil {
					return err
				}
				if d.status != models.StatusNew {
					if _, err := env.repairs.UpdateStatus(ctx, user.ID, r.ID, string(d.status)); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "%s  %-20s %s\n", r.Code, d.item, d.status)
			}
			env.log.Info("demo shop seeded", zap.Uint("establishment_id", est.ID))
			return nil
		}),
	}
	cmd.Flags().StringVar(&password, "password", "demo-password", "password of the demo account")
	return cmd
}

func newEstablishmentsCmd(withEnv runWrapper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "establishments",
		Aliases: []string{"shops"},
		Short:   "Inspect shops and manage subscriptions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every establishment with its subscription",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, env *appEnv, _ []string) error {
			all, err := env.establishments.All(cmd.Context())
			if err != nil {
				return err
			}
			return writeEstablishments(cmd.OutOrStdout(), all, time.Now())
		}),
	}

	var id uint
	var days int
	extend := &cobra.Command{
		Use:   "extend",
		Short: "Activate a shop's subscription for more days",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, env *appEnv, _ []string) error {
			est, err := env.establishments.ExtendSubscription(cmd.Context(), id, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s active until %s\n", est.Name, formatTime(est.SubscriptionEndsAt))
			return nil
		}),
	}
	extend.Flags().UintVar(&id, "id", 0, "establishment id")
	extend.Flags().IntVar(&days, "days", 30, "days to add")
	_ = extend.MarkFlagRequired("id")

	cmd.AddCommand(list, extend)
	return cmd
}

func writeEstablishments(w io.Writer, all []models.Establishment, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tTRIAL ENDS\tPAID UNTIL\tWRITES")
	for i := range all {
		e := &all[i]
		writes := "blocked"
		if e.SubscriptionActive(now) {
			writes = "ok"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Name, e.SubscriptionStatus, formatTime(e.TrialEndsAt), formatTime(e.SubscriptionEndsAt), writes)
	}
	return tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// repairRecord is the support view of a repair: everything, including money.
type repairRecord struct {
	ID              uint                 `json:"id" yaml:"id"`
	Code            string               `json:"code" yaml:"code"`
	Item            string               `json:"item" yaml:"item"`
	Description     string               `json:"description,omitempty" yaml:"description,omitempty"`
	Status          models.RepairStatus  `json:"status" yaml:"status"`
	Price           *float64             `json:"price,omitempty" yaml:"price,omitempty"`
	PaymentStatus   models.PaymentStatus `json:"payment_status" yaml:"payment_status"`
	PaidAmount      *float64             `json:"paid_amount,omitempty" yaml:"paid_amount,omitempty"`
	EstablishmentID uint                 `json:"establishment_id" yaml:"establishment_id"`
	Establishment   string               `json:"establishment" yaml:"establishment"`
	Client          string               `json:"client,omitempty" yaml:"client,omitempty"`
	CreatedAt       time.Time            `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" yaml:"updated_at"`
}

func newRepairRecord(r *models.Repair) repairRecord {
	rec := repairRecord{
		ID:              r.ID,
		Code:            r.Code,
		Item:            r.Item,
		Description:     r.Description,
		Status:          r.Status,
		Price:           r.Price,
		PaymentStatus:   r.PaymentStatus,
		PaidAmount:      r.PaidAmount,
		EstablishmentID: r.EstablishmentID,
		Establishment:   r.Establishment.Name,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Client != nil {
		rec.Client = r.Client.Name
	}
	return rec
}

func newRepairsCmd(withEnv runWrapper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repairs",
		Short: "Look up repairs",
	}
	var output string
	show := &cobra.Command{
		Use:   "show CODE",
		Short: "Print the full record of a repair",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, env *appEnv, args []string) error {
			r, err := env.repairs.GetRecordByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, newRepairRecord(r))
		}),
	}
	show.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	cmd.AddCommand(show)
	return cmd
}

func newTrackCmd(withEnv runWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "track CODE",
		Short: "Print what a customer sees for a tracking code",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, env *appEnv, args []string) error {
			v, err := env.tracking.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), "json", v)
		}),
	}
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
