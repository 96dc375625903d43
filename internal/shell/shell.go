// Package shell implements a line-oriented command interpreter over a DS1302.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/ajanata/simplertc/ds1302"
	"github.com/ajanata/simplertc/internal/logger"
	"github.com/ajanata/simplertc/rtctime"
)

// ErrQuit is returned by Exec for "quit" and "exit".
var ErrQuit = errors.New("quit")

// UsageError reports a command called with the wrong arguments.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s %s", e.Command, e.Usage)
}

type command struct {
	args  string
	help  string
	nargs int // -1 for any
	run   func(s *Shell, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"read":    {nargs: 0, help: "read the clock", run: (*Shell).read},
		"set":     {args: "YYYY MM DD hh mm ss", nargs: 6, help: "set date and time", run: (*Shell).set},
		"settime": {args: "hh mm ss", nargs: 3, help: "set the time, keeping the date", run: (*Shell).setTime},
		"build":   {args: `"Mmm dd yyyy" "hh:mm:ss"`, nargs: 2, help: "set from build-style date and time strings", run: (*Shell).build},
		"add":     {args: "SECONDS", nargs: 1, help: "move the clock by SECONDS (may be negative)", run: (*Shell).add},
		"wp":      {args: "on|off", nargs: 1, help: "enable or disable write protection", run: (*Shell).writeProtect},
		"clock":   {args: "run|halt", nargs: 1, help: "start or halt the oscillator", run: (*Shell).clock},
		"status":  {nargs: 0, help: "show oscillator state and the last reading", run: (*Shell).status},
		"help":    {nargs: -1, help: "list commands", run: (*Shell).help},
		"quit":    {nargs: 0, help: "leave the shell", run: quit},
		"exit":    {nargs: 0, help: "leave the shell", run: quit},
	}
}

// Shell runs commands against a configured device.
type Shell struct {
	dev *ds1302.Device
	out io.Writer
	log *logger.Logger
}

// New returns a shell writing its output to out.
func New(dev *ds1302.Device, out io.Writer, log *logger.Logger) *Shell {
	return &Shell{dev: dev, out: out, log: log}
}

// Exec runs one command line. Blank lines and lines starting with # do nothing.
func (s *Shell) Exec(line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil
	}
	name, args := words[0], words[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", name)
	}
	if cmd.nargs >= 0 && len(args) != cmd.nargs {
		return &UsageError{Command: name, Usage: cmd.args}
	}
	s.log.Debugw("exec", "command", name, "args", args)
	return cmd.run(s, args)
}

// Run executes the lines read from r until EOF or quit. A failing command is reported and the loop goes on.
func (s *Shell) Run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		err := s.Exec(sc.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			s.log.Debugw("command failed", "line", sc.Text(), "error", err)
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func (s *Shell) read([]string) error {
	t, err := s.dev.ReadTime()
	var rerr *ds1302.RangeError
	if err != nil && !errors.As(err, &rerr) {
		return err
	}
	fmt.Fprintln(s.out, t)
	return err
}

func (s *Shell) set(args []string) error {
	v, err := ints(args)
	if err != nil {
		return err
	}
	return s.write(rtctime.New(v[0], v[1], v[2], v[3], v[4], v[5]))
}

func (s *Shell) setTime(args []string) error {
	v, err := ints(args)
	if err != nil {
		return err
	}
	return s.write(rtctime.NewTime(v[0], v[1], v[2]))
}

func (s *Shell) build(args []string) error {
	t, err := rtctime.ParseBuild(args[0], args[1])
	if err != nil {
		return err
	}
	return s.write(t)
}

func (s *Shell) add(args []string) error {
	v, err := ints(args)
	if err != nil {
		return err
	}
	t, err := s.dev.ReadTime()
	if err != nil {
		return err
	}
	return s.write(t.Add(v[0]))
}

func (s *Shell) write(t rtctime.Date) error {
	if err := s.dev.SetTime(t); err != nil {
		return err
	}
	s.log.Infow("clock set", "time", t.String())
	fmt.Fprintf(s.out, "set %v\n", t)
	return nil
}

func (s *Shell) writeProtect(args []string) error {
	on, err := choice(args[0], "on", "off")
	if err != nil {
		return err
	}
	return s.dev.SetWriteProtection(on)
}

func (s *Shell) clock(args []string) error {
	run, err := choice(args[0], "run", "halt")
	if err != nil {
		return err
	}
	return s.dev.StartClock(run)
}

func (s *Shell) status([]string) error {
	running, err := s.dev.Running()
	if err != nil {
		return err
	}
	state := "halted"
	if running {
		state = "running"
	}
	fmt.Fprintf(s.out, "oscillator %s, last read %v\n", state, s.dev.Now())
	return nil
}

func (s *Shell) help([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(s.out, "  %-32s %s\n", strings.TrimSpace(name+" "+cmd.args), cmd.help)
	}
	return nil
}

func quit(*Shell, []string) error {
	return ErrQuit
}

func ints(args []string) ([]int, error) {
	v := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		v[i] = n
	}
	return v, nil
}

// choice reports whether arg is yes, failing if it is neither yes nor no.
func choice(arg, yes, no string) (bool, error) {
	switch arg {
	case yes:
		return true, nil
	case no:
		return false, nil
	}
	return false, fmt.Errorf("want %s or %s, got %q", yes, no, arg)
}
