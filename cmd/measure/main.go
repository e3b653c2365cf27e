package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"measure"
	measurerpc "measure/rpc"

	"github.com/spf13/cobra"
)

type app struct {
	cfg      measure.Config
	logger   *slog.Logger
	registry *measure.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "measure",
		Short:         "Convert and combine physical quantities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := measure.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
			a.registry, err = measure.NewRegistryFromConfig(cfg, a.logger)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.registry == nil {
				return nil
			}
			return a.registry.Close()
		},
	}

	convertCmd := &cobra.Command{
		Use:   "convert VALUE FROM TO",
		Short: "Convert a value between two compatible units",
		Args:  cobra.ExactArgs(3),
		RunE:  a.runConvert,
	}
	convertCmd.Flags().String("remote", "", "ask a measure server at this address instead of converting locally")
	unitsCmd := &cobra.Command{
		Use:   "units",
		Short: "List the known unit definitions",
		Args:  cobra.NoArgs,
		RunE:  a.runUnits,
	}
	evalCmd := &cobra.Command{
		Use:   "eval VALUE UNIT OP VALUE UNIT",
		Short: "Combine two quantities with +, -, *, / or <",
		Args:  cobra.ExactArgs(5),
		RunE:  a.runEval,
	}
	defineCmd := &cobra.Command{
		Use:   "define NAME",
		Short: "Store a unit definition in the unit database",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runDefine,
	}
	defineCmd.Flags().String("category", "", "dimensional category, e.g. [length]")
	defineCmd.Flags().Float64("scale", 0, "size of one unit in the category's base unit")
	defineCmd.Flags().String("symbol", "", "short symbol")
	defineCmd.Flags().StringSlice("alias", nil, "alternative spellings")
	defineCmd.Flags().String("expr", "", "compound definition, e.g. mile/hour")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer conversion requests over UDP on MEASURE_LISTEN_ADDR",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}

	rootCmd.AddCommand(convertCmd, unitsCmd, evalCmd, defineCmd, serveCmd)
	return rootCmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	q, err := a.quantity(args[0], args[1])
	if err != nil {
		return err
	}
	remote, _ := cmd.Flags().GetString("remote")
	if remote == "" {
		out, err := q.ToName(args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	client, err := measurerpc.Dial(remote)
	if err != nil {
		return err
	}
	defer client.Close()
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	out, err := client.Convert(ctx, q, args[2], a.registry)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	conn, err := net.ListenPacket("udp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	h := &measurerpc.Handler{Registry: a.registry, Logger: a.logger}
	return h.Serve(ctx, conn)
}

func (a *app) runUnits(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	for _, d := range a.registry.Definitions() {
		spelling := d.Name
		if d.Symbol != "" {
			spelling += " (" + d.Symbol + ")"
		}
		if d.Expr != "" {
			fmt.Fprintf(w, "%-24s = %s\n", spelling, d.Expr)
			continue
		}
		fmt.Fprintf(w, "%-24s %s %g\n", spelling, d.Category, d.Scale)
	}
	return nil
}

func (a *app) runEval(cmd *cobra.Command, args []string) error {
	left, err := a.quantity(args[0], args[1])
	if err != nil {
		return err
	}
	right, err := a.quantity(args[3], args[4])
	if err != nil {
		return err
	}

	var out measure.Quantity
	switch args[2] {
	case "+":
		out, err = left.Add(right)
	case "-":
		out, err = left.Sub(right)
	case "*", "x":
		out = left.Mul(right)
	case "/":
		out = left.Div(right)
	case "<":
		less, err := left.Less(right)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), less)
		return nil
	default:
		return fmt.Errorf("unknown operator %q", args[2])
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (a *app) runDefine(cmd *cobra.Command, args []string) error {
	if a.cfg.DBPath == "" {
		return errors.New("define needs MEASURE_DB_PATH to store the definition")
	}
	flags := cmd.Flags()
	d := measure.Definition{Name: args[0]}
	d.Category, _ = flags.GetString("category")
	d.Scale, _ = flags.GetFloat64("scale")
	d.Symbol, _ = flags.GetString("symbol")
	d.Aliases, _ = flags.GetStringSlice("alias")
	d.Expr, _ = flags.GetString("expr")
	if err := a.registry.Define(d); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "defined %s\n", d.Name)
	return nil
}

func (a *app) quantity(value, unit string) (measure.Quantity, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return measure.Quantity{}, fmt.Errorf("bad value %q: %w", value, err)
	}
	return a.registry.Quantity(v, unit)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
