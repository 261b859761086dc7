package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/kolvan/matrixctl/calc"
)

// sessionBudget bounds one session's ticks; a script line that stalls the
// appliance (short input, mostly) fails instead of hanging the CLI.
const sessionBudget = 1_000_000

var snapshotOut string

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Run a session script against a fresh appliance",
	Long: `Run reads a session script (a file, or stdin when the argument is "-" or
absent) and executes it line by line. Each line is one session:

	input R C DIGITS     enter an R-by-C matrix from DIGITS
	generate R C         fill an R-by-C matrix from the random source
	display S            transcribe slot S
	convolve IMG KER     3x3 convolution of slot IMG with kernel slot KER
	setting D V Q        set max dimension, max value, and class quota

Blank lines and lines starting with '#' are skipped. Transcripts are
printed as the appliance produces them; sessions that end in an error
print the error code instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open script: %w", err)
			}
			defer f.Close()
			in = f
		}
		sessions, err := parseScript(in)
		if err != nil {
			return err
		}

		app, err := calc.New(calc.Options{
			ConfigPath: viper.GetString("config"),
			Logger:     log,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return runSessions(ctx, app, sessions, cmd.OutOrStdout(), log)
		})
		if err := g.Wait(); err != nil {
			return err
		}

		if snapshotOut != "" {
			return writeSnapshot(app, snapshotOut)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&snapshotOut, "snapshot", "", "write a JSON state snapshot here after the script")
}

// session is one parsed script line.
type session struct {
	line  int
	mode  calc.Mode
	host  string
	label string
}

// parseScript reads a whole script. Parsing is strict up front so a typo
// on line 30 does not waste the 29 sessions before it.
func parseScript(r io.Reader) ([]session, error) {
	var out []session
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", n, err)
		}
		s.line = n
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return out, nil
}

// parseLine turns one script command into the mode to enter and the exact
// bytes the host feeds the serial link for it.
func parseLine(line string) (session, error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	num := func(i int, name string, min, max int) (int, error) {
		if i >= len(args) {
			return 0, fmt.Errorf("%s: missing %s", cmd, name)
		}
		v, err := strconv.Atoi(args[i])
		if err != nil || v < min || v > max {
			return 0, fmt.Errorf("%s: bad %s %q", cmd, name, args[i])
		}
		return v, nil
	}

	switch cmd {
	case "input":
		r, err := num(0, "rows", 1, 99)
		if err != nil {
			return session{}, err
		}
		c, err := num(1, "cols", 1, 99)
		if err != nil {
			return session{}, err
		}
		if len(args) != 3 {
			return session{}, fmt.Errorf("input: want rows cols digits")
		}
		digits := args[2]
		if len(digits) != r*c {
			return session{}, fmt.Errorf("input: %d digits for a %dx%d matrix", len(digits), r, c)
		}
		for _, b := range []byte(digits) {
			if b < '0' || b > '9' {
				return session{}, fmt.Errorf("input: non-digit element %q", b)
			}
		}
		return session{
			mode:  calc.ModeInput,
			host:  fmt.Sprintf("%d %d %s", r, c, digits),
			label: line,
		}, nil

	case "generate":
		r, err := num(0, "rows", 1, 99)
		if err != nil {
			return session{}, err
		}
		c, err := num(1, "cols", 1, 99)
		if err != nil {
			return session{}, err
		}
		return session{
			mode:  calc.ModeGenerate,
			host:  fmt.Sprintf("%d %d ", r, c),
			label: line,
		}, nil

	case "display":
		s, err := num(0, "slot", 0, 99)
		if err != nil {
			return session{}, err
		}
		return session{
			mode:  calc.ModeDisplay,
			host:  fmt.Sprintf("%d ", s),
			label: line,
		}, nil

	case "convolve":
		img, err := num(0, "image slot", 0, 99)
		if err != nil {
			return session{}, err
		}
		ker, err := num(1, "kernel slot", 0, 99)
		if err != nil {
			return session{}, err
		}
		return session{
			mode:  calc.ModeCompute,
			host:  fmt.Sprintf("%d C%d\r", img, ker),
			label: line,
		}, nil

	case "setting":
		d, err := num(0, "max dimension", 1, 15)
		if err != nil {
			return session{}, err
		}
		v, err := num(1, "max value", 1, 9)
		if err != nil {
			return session{}, err
		}
		q, err := num(2, "class quota", 0, 99)
		if err != nil {
			return session{}, err
		}
		return session{
			mode:  calc.ModeSetting,
			host:  fmt.Sprintf("%d %d %d ", d, v, q),
			label: line,
		}, nil

	default:
		return session{}, fmt.Errorf("unknown command %q", cmd)
	}
}

// runSessions executes the parsed script against the appliance.
func runSessions(ctx context.Context, app *calc.Appliance, sessions []session, out io.Writer, log *logrus.Logger) error {
	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}

		app.HostWrite([]byte(s.host))
		if err := app.Select(s.mode); err != nil {
			return fmt.Errorf("line %d: %w", s.line, err)
		}
		if err := app.Confirm(); err != nil {
			return fmt.Errorf("line %d: %w", s.line, err)
		}
		if err := app.RunUntilIdle(sessionBudget); err != nil {
			return fmt.Errorf("line %d (%s): %w", s.line, s.label, err)
		}

		fmt.Fprintf(out, "# %s\n", s.label)
		if code := app.DisplayedError(); code != "" {
			log.WithFields(logrus.Fields{"line": s.line, "error": code}).Warn("session failed")
			fmt.Fprintf(out, "error: %s\n", code)
			app.Back() // clear the indication before the next session
			continue
		}
		writeTranscript(out, app.HostRead())
	}
	return nil
}

// writeTranscript prints an appliance transcript with the serial framing
// translated to plain lines.
func writeTranscript(out io.Writer, raw []byte) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	io.WriteString(out, text)
}

// writeSnapshot dumps the appliance state as JSON.
func writeSnapshot(app *calc.Appliance, path string) error {
	raw, err := app.MarshalSnapshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
