// Package htp implements a small Hex text protocol for driving the
// solvers from a terminal or a GUI.
//
// Commands follow GTP conventions: an optional numeric id, a command name
// and arguments. Replies start with '=' on success or '?' on failure and end
// with a blank line.
package htp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/solver"
)

const (
	engineName    = "hexsolver"
	engineVersion = "1.0"
)

var commands = []string{
	"boardsize", "clear_board", "dfpn", "list_commands", "name", "play",
	"protocol_version", "quit", "setposition", "showboard", "solve",
	"solver_proof", "stop", "undo", "version",
}

// Server is the protocol handler.
type Server struct {
	pos    *board.Position
	dfs    solver.GameSolver
	dfpn   solver.GameSolver
	limits solver.Limits
	logger *slog.Logger

	out   io.Writer
	outMu sync.Mutex

	// Search state
	searchDone chan struct{}
	cancel     context.CancelFunc
	active     solver.GameSolver
	last       solver.Result
	lastPos    *board.Position
	quit       bool
}

// New creates a server on an empty board of the given size. Either solver
// may be nil, which disables its command.
func New(geo *board.Geometry, dfs, dfpn solver.GameSolver, limits solver.Limits, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pos:    board.NewPosition(geo),
		dfs:    dfs,
		dfpn:   dfpn,
		limits: limits,
		logger: logger,
	}
}

// Run reads commands from in until quit or end of input.
func (s *Server) Run(in io.Reader, out io.Writer) error {
	s.out = out
	scanner := bufio.NewScanner(in)

	for !s.quit && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		id := ""
		if _, err := strconv.Atoi(parts[0]); err == nil {
			id, parts = parts[0], parts[1:]
			if len(parts) == 0 {
				continue
			}
		}
		cmd, args := parts[0], parts[1:]

		// Only stop may overtake a running search.
		if cmd == "stop" {
			s.handleStop(id)
			continue
		}
		s.waitSearch()

		switch cmd {
		case "name":
			s.reply(id, engineName)
		case "version":
			s.reply(id, engineVersion)
		case "protocol_version":
			s.reply(id, "2")
		case "list_commands":
			s.reply(id, strings.Join(commands, "\n"))
		case "boardsize":
			s.handleBoardSize(id, args)
		case "clear_board":
			s.pos = board.NewPosition(s.pos.Geometry())
			s.reply(id, "")
		case "setposition":
			s.handleSetPosition(id, args)
		case "play":
			s.handlePlay(id, args)
		case "undo":
			s.handleUndo(id)
		case "showboard":
			s.reply(id, s.pos.String())
		case "solve":
			s.handleSolve(id, s.dfs, args)
		case "dfpn":
			s.handleSolve(id, s.dfpn, args)
		case "solver_proof":
			s.handleProof(id)
		case "quit":
			s.quit = true
			s.reply(id, "")
		default:
			s.fail(id, fmt.Errorf("unknown command %q", cmd))
		}
	}

	s.stopSearch()
	return scanner.Err()
}

func (s *Server) reply(id, msg string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	// A blank line ends a reply.
	msg = strings.TrimRight(msg, "\n")
	for strings.Contains(msg, "\n\n") {
		msg = strings.ReplaceAll(msg, "\n\n", "\n")
	}
	if msg != "" && !strings.HasPrefix(msg, "\n") {
		msg = " " + msg
	}
	fmt.Fprintf(s.out, "=%s%s\n\n", id, msg)
}

func (s *Server) fail(id string, err error) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, "?%s %v\n\n", id, err)
}

// handleBoardSize handles "boardsize W [H]".
func (s *Server) handleBoardSize(id string, args []string) {
	if len(args) < 1 || len(args) > 2 {
		s.fail(id, fmt.Errorf("usage: boardsize WIDTH [HEIGHT]"))
		return
	}
	w, err := strconv.Atoi(args[0])
	if err != nil {
		s.fail(id, fmt.Errorf("invalid width %q", args[0]))
		return
	}
	h := w
	if len(args) == 2 {
		if h, err = strconv.Atoi(args[1]); err != nil {
			s.fail(id, fmt.Errorf("invalid height %q", args[1]))
			return
		}
	}
	geo, err := board.NewGeometry(w, h)
	if err != nil {
		s.fail(id, err)
		return
	}
	s.pos = board.NewPosition(geo)
	s.reply(id, "")
}

// handleSetPosition handles "setposition <rows> [b|w]".
func (s *Server) handleSetPosition(id string, args []string) {
	pos, err := board.ParsePosition(strings.Join(args, " "))
	if err != nil {
		s.fail(id, err)
		return
	}
	s.pos = pos
	s.reply(id, "")
}

// handlePlay handles "play <color> <cell>".
func (s *Server) handlePlay(id string, args []string) {
	if len(args) != 2 {
		s.fail(id, fmt.Errorf("usage: play COLOR CELL"))
		return
	}
	col, err := board.ParseColor(args[0])
	if err != nil {
		s.fail(id, err)
		return
	}
	c, err := board.ParseCell(strings.ToLower(args[1]))
	if err != nil {
		s.fail(id, err)
		return
	}
	if err := s.pos.CanPlay(c); err != nil {
		s.fail(id, err)
		return
	}
	s.pos.PlayColor(col, c)
	s.reply(id, "")
}

func (s *Server) handleUndo(id string) {
	if s.pos.MoveNumber() == 0 {
		s.fail(id, fmt.Errorf("no move to undo"))
		return
	}
	s.pos.Undo()
	s.reply(id, "")
}

// handleSolve handles "solve [seconds]" and "dfpn [seconds]". The search
// runs in the background so that stop can interrupt it; the reply is
// written when it ends.
func (s *Server) handleSolve(id string, gs solver.GameSolver, args []string) {
	if gs == nil {
		s.fail(id, fmt.Errorf("solver not available"))
		return
	}
	limits := s.limits
	if len(args) > 0 {
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil || secs < 0 {
			s.fail(id, fmt.Errorf("invalid time limit %q", args[0]))
			return
		}
		limits.Time = time.Duration(secs * float64(time.Second))
	}

	ctx, cancel := context.WithCancel(context.Background())
	pos := s.pos.Copy()
	s.cancel = cancel
	s.active = gs
	s.searchDone = make(chan struct{})

	go func() {
		defer close(s.searchDone)
		defer cancel()

		res, err := gs.Solve(ctx, pos, limits)
		if err != nil {
			s.logger.Error("solve failed", "position", pos.Notation(), "error", err)
			s.fail(id, err)
			return
		}
		s.last, s.lastPos = res, pos
		s.logger.Info("solve finished", "run", res.RunID.String(),
			"outcome", res.Outcome.String(), "elapsed", res.Duration.String())
		if !res.Solved() {
			s.reply(id, "unknown")
			return
		}
		msg := res.Winner.String()
		if len(res.PV) > 0 {
			msg += " " + board.FormatCells(res.PV)
		}
		s.reply(id, msg)
	}()
}

// handleProof prints the proof of the last solved position.
func (s *Server) handleProof(id string) {
	if s.lastPos == nil || !s.last.Solved() {
		s.fail(id, fmt.Errorf("no solved position"))
		return
	}
	s.reply(id, board.FormatCells(s.last.Proof.Cells()))
}

// handleStop aborts the running search and waits for its reply.
func (s *Server) handleStop(id string) {
	s.stopSearch()
	s.reply(id, "")
}

func (s *Server) stopSearch() {
	if s.searchDone == nil {
		return
	}
	s.cancel()
	s.active.Stop()
	s.waitSearch()
}

func (s *Server) waitSearch() {
	if s.searchDone == nil {
		return
	}
	<-s.searchDone
	s.searchDone = nil
	s.cancel = nil
	s.active = nil
}
